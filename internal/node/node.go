package node

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/maxmynter/nanochain/internal/chain"
	"github.com/maxmynter/nanochain/internal/metrics"
)

// Node is the process-wide handle spec.md §9 asks for in place of globals:
// it owns the Blockchain and the map of active outbound/inbound peer
// connections, and is threaded explicitly through every task instead of
// being reached via package-level state. Grounded on internal/p2p.Node,
// generalized from a libp2p host to a plain TCP listener per spec.md §6's
// raw-socket framing contract.
type Node struct {
	BC     *chain.Blockchain
	Logger *zap.Logger

	listener net.Listener

	peersMu sync.Mutex
	peers   map[string]net.Conn

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

// New creates a Node wrapping bc. logger must not be nil.
func New(bc *chain.Blockchain, logger *zap.Logger) *Node {
	return &Node{
		BC:       bc,
		Logger:   logger,
		peers:    make(map[string]net.Conn),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Bind opens the listening socket on addr without accepting connections
// yet, so callers (and tests) can learn the bound address — useful with
// addr "host:0" — before Serve starts handling traffic.
func (n *Node) Bind(addr string) (net.Addr, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("node: listen on %s: %w", addr, err)
	}
	n.listener = lis
	return lis.Addr(), nil
}

// Listen binds addr and serves inbound peer connections until ctx is
// canceled or the listener fails; callers typically run it in its own
// goroutine or errgroup task.
func (n *Node) Listen(ctx context.Context, addr string) error {
	if _, err := n.Bind(addr); err != nil {
		return err
	}
	return n.Serve(ctx)
}

// Serve accepts inbound peer connections on a listener previously opened
// by Bind, until ctx is canceled or the listener fails.
func (n *Node) Serve(ctx context.Context) error {
	n.Logger.Info("node listening", zap.String("addr", n.listener.Addr().String()))

	go func() {
		<-ctx.Done()
		n.listener.Close()
	}()

	for {
		conn, err := n.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("node: accept: %w", err)
			}
		}
		n.registerPeer(conn)
		go n.handleConn(ctx, conn)
	}
}

// Connect dials a peer, registers it in the peer map, and returns the
// connection for the caller to drive a request/response exchange over.
func (n *Node) Connect(ctx context.Context, addr string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("node: dial %s: %w", addr, err)
	}
	n.registerPeer(conn)
	return conn, nil
}

func (n *Node) registerPeer(conn net.Conn) {
	n.peersMu.Lock()
	n.peers[conn.RemoteAddr().String()] = conn
	count := len(n.peers)
	n.peersMu.Unlock()
	metrics.PeersConnected.Set(float64(count))
}

func (n *Node) removePeer(conn net.Conn) {
	n.peersMu.Lock()
	delete(n.peers, conn.RemoteAddr().String())
	count := len(n.peers)
	n.peersMu.Unlock()
	metrics.PeersConnected.Set(float64(count))
	conn.Close()
}

// PeerCount returns the number of currently tracked peer connections.
func (n *Node) PeerCount() int {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	return len(n.peers)
}

// peerAddrs returns a snapshot of every tracked peer address.
func (n *Node) peerAddrs() []string {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	out := make([]string, 0, len(n.peers))
	for addr := range n.peers {
		out = append(out, addr)
	}
	return out
}

// limiterFor returns the per-peer rate limiter for addr, creating one on
// first use. Mirrors internal/p2p.PubSub.getPeerLimiter's lazy-map
// pattern, generalized from GossipSub message arrival to per-frame arrival
// on a raw socket.
func (n *Node) limiterFor(addr string) *rate.Limiter {
	n.limitersMu.Lock()
	defer n.limitersMu.Unlock()

	if lim, ok := n.limiters[addr]; ok {
		return lim
	}
	if len(n.limiters) >= 500 {
		for k := range n.limiters {
			delete(n.limiters, k)
			break
		}
	}
	lim := rate.NewLimiter(20, 40)
	n.limiters[addr] = lim
	return lim
}

// handleConn drives one peer connection: request frames arrive strictly
// sequentially (spec.md §5, "at most one in-flight"), each producing at
// most one reply frame. The connection is removed from the peer map on
// EOF or a malformed frame, per spec.md §5's cancellation policy.
func (n *Node) handleConn(ctx context.Context, conn net.Conn) {
	defer n.removePeer(conn)
	addr := conn.RemoteAddr().String()

	for {
		if err := ctx.Err(); err != nil {
			return
		}
		if err := n.limiterFor(addr).Wait(ctx); err != nil {
			return
		}

		frame, err := ReadFrame(conn)
		if err != nil {
			n.Logger.Debug("peer connection closed", zap.String("addr", addr), zap.Error(err))
			return
		}

		env, err := DecodeEnvelope(frame)
		if err != nil {
			n.Logger.Debug("malformed frame", zap.String("addr", addr), zap.Error(err))
			return
		}

		reply, err := n.dispatch(env)
		if err != nil {
			n.Logger.Debug("handler error", zap.String("addr", addr), zap.Error(err))
			continue
		}
		if reply == nil {
			continue
		}
		if err := WriteFrame(conn, reply); err != nil {
			n.Logger.Debug("write reply failed", zap.String("addr", addr), zap.Error(err))
			return
		}
	}
}
