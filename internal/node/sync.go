package node

import (
	"context"
	"fmt"
	"net"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// request sends (t, payload) over conn and returns the decoded reply
// envelope. Connections in this protocol are strictly request/response
// with at most one frame in flight (spec.md §5).
func request(conn requestWriter, t MsgType, payload interface{}) (Envelope, error) {
	frame, err := Encode(t, payload)
	if err != nil {
		return Envelope{}, err
	}
	if err := WriteFrame(conn, frame); err != nil {
		return Envelope{}, err
	}
	reply, err := ReadFrame(conn)
	if err != nil {
		return Envelope{}, err
	}
	return DecodeEnvelope(reply)
}

// requestWriter is the io.ReadWriter subset request needs; satisfied by
// net.Conn.
type requestWriter interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
}

// Request is the exported form of request, for callers outside this
// package (cmd/miner, cmd/wallet) driving a node connection directly.
func Request(conn net.Conn, t MsgType, payload interface{}) (Envelope, error) {
	return request(conn, t, payload)
}

// DecodePayload is the exported form of decodePayload, letting callers
// outside this package decode a reply envelope's payload by type.
func DecodePayload[T any](raw cbor.RawMessage) (T, error) {
	return decodePayload[T](raw)
}

// SyncFromPeers implements spec.md §4.6's chain-sync-on-startup sequence:
// for each configured peer, discover its peer list, ask its absolute
// height via AskDifference(0), pick the tallest peer, and redownload its
// chain from genesis. After bulk ingest it rebuilds the UTXO set and
// retargets.
func (n *Node) SyncFromPeers(ctx context.Context, peerAddrs []string) error {
	var bestAddr string
	var bestDiff int32

	for _, addr := range peerAddrs {
		conn, err := n.Connect(ctx, addr)
		if err != nil {
			n.Logger.Warn("sync: connect failed", zap.String("addr", addr), zap.Error(err))
			continue
		}

		if env, err := request(conn, MsgDiscoverNodes, DiscoverNodesPayload{}); err == nil {
			if list, err := decodePayload[NodeListPayload](env.Payload); err == nil {
				peerAddrs = mergeAddrs(peerAddrs, list.Addresses)
			}
		}

		env, err := request(conn, MsgAskDifference, AskDifferencePayload{Height: 0})
		n.removePeer(conn)
		if err != nil {
			n.Logger.Warn("sync: ask-difference failed", zap.String("addr", addr), zap.Error(err))
			continue
		}
		diff, err := decodePayload[DifferencePayload](env.Payload)
		if err != nil {
			continue
		}
		if diff.Difference > bestDiff {
			bestDiff = diff.Difference
			bestAddr = addr
		}
	}

	if bestAddr == "" || bestDiff <= 0 {
		return nil
	}

	if err := n.fetchBlocksFrom(ctx, bestAddr, int(bestDiff)); err != nil {
		return err
	}

	if err := n.BC.RebuildUTXOs(); err != nil {
		return fmt.Errorf("node: rebuild utxos after sync: %w", err)
	}
	n.BC.TryAdjustTarget()
	return nil
}

// fetchBlocksFrom issues FetchBlock for heights [0, count) — the peer's
// full chain, per spec.md §4.6 — and feeds each returned block through
// AddBlock in order.
func (n *Node) fetchBlocksFrom(ctx context.Context, addr string, count int) error {
	conn, err := n.Connect(ctx, addr)
	if err != nil {
		return err
	}
	defer n.removePeer(conn)

	for i := 0; i < count; i++ {
		env, err := request(conn, MsgFetchBlock, FetchBlockPayload{Index: uint64(i)})
		if err != nil {
			return fmt.Errorf("node: fetch block %d: %w", i, err)
		}
		reply, err := decodePayload[NewBlockPayload](env.Payload)
		if err != nil {
			return fmt.Errorf("node: decode block %d: %w", i, err)
		}
		if err := n.BC.AddBlock(reply.Block); err != nil {
			return fmt.Errorf("node: add block %d: %w", i, err)
		}
	}
	return nil
}

func mergeAddrs(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := append([]string(nil), base...)
	for _, a := range base {
		seen[a] = true
	}
	for _, a := range extra {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// runSyncTask runs SyncFromPeers once under an errgroup, logging failure
// without aborting the group (a failed startup sync should not prevent the
// node from serving peers that connect afterward).
func runSyncTask(ctx context.Context, g *errgroup.Group, n *Node, peerAddrs []string) {
	g.Go(func() error {
		if err := n.SyncFromPeers(ctx, peerAddrs); err != nil {
			n.Logger.Warn("startup sync failed", zap.Error(err))
		}
		return nil
	})
}
