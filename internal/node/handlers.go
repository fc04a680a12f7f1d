package node

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// dispatch decodes env's payload against its Type and runs the matching
// node-side handler, returning the wire-ready reply frame (nil for
// one-way messages that expect no reply).
func (n *Node) dispatch(env Envelope) ([]byte, error) {
	switch env.Type {
	case MsgFetchUTXOs:
		return n.handleFetchUTXOs(env)
	case MsgSubmitTransaction:
		return n.handleSubmitTransaction(env)
	case MsgNewTransaction:
		return n.handleNewTransaction(env)
	case MsgFetchTemplate:
		return n.handleFetchTemplate(env)
	case MsgValidateTemplate:
		return n.handleValidateTemplate(env)
	case MsgSubmitTemplate:
		return n.handleSubmitTemplate(env)
	case MsgDiscoverNodes:
		return n.handleDiscoverNodes(env)
	case MsgAskDifference:
		return n.handleAskDifference(env)
	case MsgFetchBlock:
		return n.handleFetchBlock(env)
	case MsgNewBlock:
		return n.handleNewBlock(env)
	default:
		return nil, fmt.Errorf("node: unhandled message type %d", env.Type)
	}
}

func decodePayload[T any](raw []byte) (T, error) {
	var v T
	err := chainhash.Unmarshal(raw, &v)
	return v, err
}

func (n *Node) handleFetchUTXOs(env Envelope) ([]byte, error) {
	req, err := decodePayload[FetchUTXOsPayload](env.Payload)
	if err != nil {
		return nil, err
	}
	utxos := n.BC.UTXOsForKey(req.Pubkey)
	return Encode(MsgUTXOs, UTXOsPayload{UTXOs: utxoEntriesFrom(utxos)})
}

func (n *Node) handleSubmitTransaction(env Envelope) ([]byte, error) {
	req, err := decodePayload[SubmitTransactionPayload](env.Payload)
	if err != nil {
		return nil, err
	}
	if err := n.BC.AddToMempool(req.Tx, time.Now()); err != nil {
		return nil, err
	}
	n.broadcast(MsgNewTransaction, NewTransactionPayload{Tx: req.Tx})
	return nil, nil
}

func (n *Node) handleNewTransaction(env Envelope) ([]byte, error) {
	req, err := decodePayload[NewTransactionPayload](env.Payload)
	if err != nil {
		return nil, err
	}
	// Gossip admission failures (e.g. a transaction already admitted via
	// another peer) are not errors worth tearing down the connection for.
	_ = n.BC.AddToMempool(req.Tx, time.Now())
	return nil, nil
}

func (n *Node) handleFetchTemplate(env Envelope) ([]byte, error) {
	req, err := decodePayload[FetchTemplatePayload](env.Payload)
	if err != nil {
		return nil, err
	}
	block, err := BuildTemplate(n.BC, req.Pubkey)
	if err != nil {
		return nil, err
	}
	return Encode(MsgTemplate, TemplatePayload{Block: block})
}

func (n *Node) handleValidateTemplate(env Envelope) ([]byte, error) {
	req, err := decodePayload[ValidateTemplatePayload](env.Payload)
	if err != nil {
		return nil, err
	}

	lastHash, err := n.BC.LastBlockHash()
	if err != nil {
		return nil, err
	}
	headerHash, err := req.Block.Header.Hash()
	if err != nil {
		return nil, err
	}

	valid := req.Block.Header.PrevBlockHash == lastHash &&
		req.Block.Header.Target.Cmp(n.BC.Target()) == 0 &&
		headerHash.MatchesTarget(req.Block.Header.Target)

	return Encode(MsgTemplateValidity, TemplateValidityPayload{Valid: valid})
}

func (n *Node) handleSubmitTemplate(env Envelope) ([]byte, error) {
	req, err := decodePayload[SubmitTemplatePayload](env.Payload)
	if err != nil {
		return nil, err
	}
	if err := n.BC.AddBlock(req.Block); err != nil {
		return nil, err
	}
	n.broadcast(MsgNewBlock, NewBlockPayload{Block: req.Block})
	return nil, nil
}

func (n *Node) handleDiscoverNodes(Envelope) ([]byte, error) {
	return Encode(MsgNodeList, NodeListPayload{Addresses: n.peerAddrs()})
}

func (n *Node) handleAskDifference(env Envelope) ([]byte, error) {
	req, err := decodePayload[AskDifferencePayload](env.Payload)
	if err != nil {
		return nil, err
	}
	diff := int32(n.BC.Height()) - int32(req.Height)
	return Encode(MsgDifference, DifferencePayload{Difference: diff})
}

func (n *Node) handleFetchBlock(env Envelope) ([]byte, error) {
	req, err := decodePayload[FetchBlockPayload](env.Payload)
	if err != nil {
		return nil, err
	}
	block, ok := n.BC.Block(int(req.Index))
	if !ok {
		return nil, fmt.Errorf("node: no block at index %d", req.Index)
	}
	return Encode(MsgNewBlock, NewBlockPayload{Block: block})
}

func (n *Node) handleNewBlock(env Envelope) ([]byte, error) {
	req, err := decodePayload[NewBlockPayload](env.Payload)
	if err != nil {
		return nil, err
	}
	return nil, n.BC.AddBlock(req.Block)
}

// broadcast best-effort sends (t, payload) to every currently tracked
// peer. Per spec.md §5, peer connections have no ordering guarantees
// between each other; a write failure just drops that peer on its own
// read loop.
func (n *Node) broadcast(t MsgType, payload interface{}) {
	frame, err := Encode(t, payload)
	if err != nil {
		n.Logger.Warn("broadcast encode failed", zap.Error(err))
		return
	}

	n.peersMu.Lock()
	conns := make(map[string]net.Conn, len(n.peers))
	for addr, conn := range n.peers {
		conns[addr] = conn
	}
	n.peersMu.Unlock()

	for addr, conn := range conns {
		if err := WriteFrame(conn, frame); err != nil {
			n.Logger.Debug("broadcast write failed", zap.String("addr", addr), zap.Error(err))
		}
	}
}
