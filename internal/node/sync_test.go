package node

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/maxmynter/nanochain/internal/chain"
	"github.com/maxmynter/nanochain/testutil"
)

// TestSyncFromPeers_FetchesFullPeerChain pins spec.md §4.6's literal
// AskDifference(0)/FetchBlock([0,count)) behavior: a syncing node always
// redownloads its peer's chain from genesis rather than asking for a delta
// against its own height.
func TestSyncFromPeers_FetchesFullPeerChain(t *testing.T) {
	_, pub := testutil.SampleKeypair(t)
	blocks := testutil.SampleChain(t, 3, pub)

	serverBC := chain.NewBlockchain(testutil.EasyTarget())
	for _, b := range blocks {
		if err := serverBC.AddBlock(b); err != nil {
			t.Fatalf("AddBlock: %v", err)
		}
	}
	server := New(serverBC, zap.NewNop())
	addr, cancel := startListening(t, server)
	defer cancel()

	client := newTestNode(t)
	if err := client.SyncFromPeers(context.Background(), []string{addr}); err != nil {
		t.Fatalf("SyncFromPeers: %v", err)
	}

	if client.BC.Height() != serverBC.Height() {
		t.Fatalf("client height = %d, want %d", client.BC.Height(), serverBC.Height())
	}
	for i := 0; i < serverBC.Height(); i++ {
		want, _ := serverBC.Block(i)
		got, _ := client.BC.Block(i)
		wantHash, _ := want.Hash()
		gotHash, _ := got.Hash()
		if wantHash != gotHash {
			t.Errorf("block %d mismatch after sync", i)
		}
	}
}

func TestSyncFromPeers_NoPeersIsNoop(t *testing.T) {
	client := newTestNode(t)
	if err := client.SyncFromPeers(context.Background(), nil); err != nil {
		t.Fatalf("SyncFromPeers: %v", err)
	}
	if client.BC.Height() != 0 {
		t.Fatalf("height = %d, want 0", client.BC.Height())
	}
}
