package chain

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "chain.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	bc := chainAtHeight(t, 3)
	store := openTestStore(t)

	if err := bc.Save(store); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := NewBlockchain(easyTarget())
	if err := restored.Load(store); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if restored.Height() != bc.Height() {
		t.Fatalf("Height() = %d, want %d", restored.Height(), bc.Height())
	}
	for i := 0; i < bc.Height(); i++ {
		want, _ := bc.Block(i)
		got, _ := restored.Block(i)
		wantHash, _ := want.Hash()
		gotHash, _ := got.Hash()
		if wantHash != gotHash {
			t.Errorf("block %d hash mismatch after round trip", i)
		}
	}
	if restored.Target().Cmp(bc.Target()) != 0 {
		t.Error("target mismatch after round trip")
	}
	if restored.MempoolSize() != 0 {
		t.Error("mempool should be empty immediately after Load")
	}
}

func TestSaveLoad_MempoolExcluded(t *testing.T) {
	bc, priv, _, outHash := seedUTXO(t)
	recipient := mustPub(t)
	tx := spendingTx(t, priv, outHash, InitialReward*SatoshisPerCoin, recipient)
	if err := bc.AddToMempool(tx, time.Unix(2000, 0)); err != nil {
		t.Fatalf("AddToMempool: %v", err)
	}
	if bc.MempoolSize() != 1 {
		t.Fatalf("MempoolSize() = %d, want 1", bc.MempoolSize())
	}

	store := openTestStore(t)
	if err := bc.Save(store); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := NewBlockchain(easyTarget())
	if err := restored.Load(store); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.MempoolSize() != 0 {
		t.Error("persisted snapshot must exclude the mempool")
	}

	if err := restored.RebuildUTXOs(); err != nil {
		t.Fatalf("RebuildUTXOs: %v", err)
	}
	restored.TryAdjustTarget()
}

func TestSaveLoad_SurvivesStoreReopen(t *testing.T) {
	bc := chainAtHeight(t, 4)
	dbPath := filepath.Join(t.TempDir(), "chain.db")

	store, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if err := bc.Save(store); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStore (reopen): %v", err)
	}
	defer reopened.Close()

	restored := NewBlockchain(easyTarget())
	if err := restored.Load(reopened); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.Height() != bc.Height() {
		t.Fatalf("Height() after reopen = %d, want %d", restored.Height(), bc.Height())
	}
}
