// Package chainhash implements the canonical hashing and Merkle primitives
// shared by every entity in the chain state engine.
package chainhash

import "github.com/fxamacker/cbor/v2"

// encMode is the single canonical CBOR encoder used everywhere an entity is
// hashed or put on the wire. Canonical mode sorts map keys deterministically
// so that two implementations serializing the same value always agree on
// its bytes, which Of depends on.
var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	m, err := opts.EncMode()
	if err != nil {
		panic("chainhash: build canonical cbor enc mode: " + err.Error())
	}
	return m
}

// Marshal canonically CBOR-encodes v using the shared encoder.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal CBOR-decodes data into v.
func Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
