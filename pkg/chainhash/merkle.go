package chainhash

// Hasher is implemented by anything that can be canonically hashed, such as
// a transaction. Calculate only needs the hash of each leaf, not the leaf
// value itself.
type Hasher interface {
	Hash() (Hash, error)
}

// pair is the two-element array a parent Merkle node hashes over. Encoding
// it as a slice (rather than hashing concatenated bytes, as Bitcoin does)
// keeps every hashed value going through the same canonical-CBOR-then-SHA256
// rule that Of uses for every other entity.
type pair [2]Hash

// Calculate reduces the hashes of txs to a single Merkle root by repeatedly
// pairing adjacent hashes (duplicating the last one when the layer has an
// odd length) until one hash remains.
//
// An empty tx list has no well-defined root; Calculate returns the zero
// hash in that case. Callers must reject empty transaction lists before
// relying on the result (see internal/chain's coinbase-presence check).
func Calculate(txs []Hasher) (Hash, error) {
	if len(txs) == 0 {
		return Hash{}, nil
	}

	layer := make([]Hash, len(txs))
	for i, tx := range txs {
		h, err := tx.Hash()
		if err != nil {
			return Hash{}, err
		}
		layer[i] = h
	}

	for len(layer) > 1 {
		if len(layer)%2 != 0 {
			layer = append(layer, layer[len(layer)-1])
		}
		next := make([]Hash, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			h, err := Of(pair{layer[i], layer[i+1]})
			if err != nil {
				return Hash{}, err
			}
			next[i/2] = h
		}
		layer = next
	}

	return layer[0], nil
}
