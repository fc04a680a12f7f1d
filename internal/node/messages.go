// Package node implements the wire protocol and node-side handlers of
// spec.md §4.6: a tagged CBOR message set over length-prefixed framing,
// the peer-connection loop, and the chain-sync-on-startup sequence.
// Grounded on internal/p2p/messages.go's MessageType-tagged struct style,
// generalized from libp2p pubsub/protocol routing to a single raw-socket
// envelope since spec.md's framing has no protocol-ID multiplexing.
package node

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/maxmynter/nanochain/internal/chain"
	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// MsgType tags which row of spec.md §4.6's message table an Envelope
// carries.
type MsgType uint8

const (
	MsgFetchUTXOs MsgType = iota + 1
	MsgUTXOs
	MsgSubmitTransaction
	MsgNewTransaction
	MsgFetchTemplate
	MsgTemplate
	MsgValidateTemplate
	MsgTemplateValidity
	MsgSubmitTemplate
	MsgDiscoverNodes
	MsgNodeList
	MsgAskDifference
	MsgDifference
	MsgFetchBlock
	MsgNewBlock
)

// Envelope is the one shape that ever crosses the wire: a type tag plus the
// type's payload, itself canonically CBOR-encoded. Receivers decode the
// envelope first, branch on Type, then decode Payload into the matching
// payload struct below.
type Envelope struct {
	Type    MsgType         `cbor:"1,keyasint"`
	Payload cbor.RawMessage `cbor:"2,keyasint"`
}

// Encode builds an Envelope around payload tagged as t and canonically
// CBOR-encodes it, ready to hand to WriteFrame.
func Encode(t MsgType, payload interface{}) ([]byte, error) {
	inner, err := chainhash.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("node: encode payload: %w", err)
	}
	return chainhash.Marshal(Envelope{Type: t, Payload: inner})
}

// DecodeEnvelope reads just the type tag and raw payload bytes, deferring
// payload decoding to the caller once it knows which struct to decode into.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := chainhash.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("node: decode envelope: %w", err)
	}
	return env, nil
}

// FetchUTXOsPayload requests every UTXO payable to Pubkey (W→N).
type FetchUTXOsPayload struct {
	Pubkey walletcrypto.PublicKey `cbor:"1,keyasint"`
}

// UTXOEntry pairs an output with its reservation flag, as returned by
// FetchUTXOs.
type UTXOEntry struct {
	Output   entity.TransactionOutput `cbor:"1,keyasint"`
	Reserved bool                     `cbor:"2,keyasint"`
}

// UTXOsPayload is the reply to FetchUTXOs (N→W).
type UTXOsPayload struct {
	UTXOs []UTXOEntry `cbor:"1,keyasint"`
}

// SubmitTransactionPayload asks the node to admit Tx to its mempool (W→N).
type SubmitTransactionPayload struct {
	Tx entity.Transaction `cbor:"1,keyasint"`
}

// NewTransactionPayload gossips a mempool-admitted transaction to a peer
// (N→N).
type NewTransactionPayload struct {
	Tx entity.Transaction `cbor:"1,keyasint"`
}

// FetchTemplatePayload requests a block template paying the reward to
// Pubkey (M→N).
type FetchTemplatePayload struct {
	Pubkey walletcrypto.PublicKey `cbor:"1,keyasint"`
}

// TemplatePayload is an unmined block template (N→M).
type TemplatePayload struct {
	Block entity.Block `cbor:"1,keyasint"`
}

// ValidateTemplatePayload asks whether Block's header is still valid against
// the node's current chain tip and target (M→N).
type ValidateTemplatePayload struct {
	Block entity.Block `cbor:"1,keyasint"`
}

// TemplateValidityPayload answers ValidateTemplate (N→M).
type TemplateValidityPayload struct {
	Valid bool `cbor:"1,keyasint"`
}

// SubmitTemplatePayload submits a mined block for acceptance (M→N).
type SubmitTemplatePayload struct {
	Block entity.Block `cbor:"1,keyasint"`
}

// DiscoverNodesPayload requests a peer's address list (N→N). It carries no
// fields; its CBOR encoding is an empty map.
type DiscoverNodesPayload struct{}

// NodeListPayload answers DiscoverNodes (N→N).
type NodeListPayload struct {
	Addresses []string `cbor:"1,keyasint"`
}

// AskDifferencePayload asks a peer how far ahead of Height it is (N→N).
type AskDifferencePayload struct {
	Height uint32 `cbor:"1,keyasint"`
}

// DifferencePayload answers AskDifference: peer height minus the asked
// height, which may be negative if the asker is ahead (N→N).
type DifferencePayload struct {
	Difference int32 `cbor:"1,keyasint"`
}

// FetchBlockPayload requests the block at Index (N→N).
type FetchBlockPayload struct {
	Index uint64 `cbor:"1,keyasint"`
}

// NewBlockPayload carries a block, either as a direct reply to FetchBlock or
// as a broadcast of a newly accepted block (N→N).
type NewBlockPayload struct {
	Block entity.Block `cbor:"1,keyasint"`
}

// utxoEntriesFrom adapts chain.UTXO values to the wire's UTXOEntry shape.
func utxoEntriesFrom(utxos []chain.UTXO) []UTXOEntry {
	out := make([]UTXOEntry, len(utxos))
	for i, u := range utxos {
		out[i] = UTXOEntry{Output: u.Output, Reserved: u.Reserved}
	}
	return out
}
