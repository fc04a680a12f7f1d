package chain

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"go.etcd.io/bbolt"

	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// blockEncoder/blockDecoder compress the persisted snapshot blob. Grounded
// on internal/p2p/compress.go's reusable zstd encoder/decoder pair,
// repurposed from coinbase-payload compression to whole-snapshot compression.
var (
	blockEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	blockDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(1<<30))
)

var (
	snapshotBucket = []byte("snapshot")
	snapshotKey    = []byte("blockchain")
)

// blockchainSnapshot is the CBOR-friendly shadow of Blockchain spec.md §6
// requires: blocks and the difficulty target, nothing else. Mempool is
// excluded by construction, and UTXOs are derived state that RebuildUTXOs
// recomputes on load, so neither belongs in the persisted form.
type blockchainSnapshot struct {
	Blocks []entity.Block `cbor:"0,keyasint"`
	Target chainhash.U256 `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler, making Blockchain itself satisfy
// spec.md §8's decode(encode(m)) == m round-trip law: the mempool never
// enters the encoded form, so there is nothing for a decode to reconstruct
// incorrectly.
func (bc *Blockchain) MarshalCBOR() ([]byte, error) {
	bc.mu.RLock()
	snap := blockchainSnapshot{
		Blocks: append([]entity.Block(nil), bc.blocks...),
		Target: bc.target,
	}
	bc.mu.RUnlock()
	return chainhash.Marshal(snap)
}

// UnmarshalCBOR implements cbor.Unmarshaler, replacing bc's blocks and
// target. The mempool and UTXO index are cleared, matching spec.md §6 —
// callers must follow with RebuildUTXOs then TryAdjustTarget.
func (bc *Blockchain) UnmarshalCBOR(data []byte) error {
	var snap blockchainSnapshot
	if err := chainhash.Unmarshal(data, &snap); err != nil {
		return err
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.blocks = snap.Blocks
	bc.target = snap.Target
	bc.mempool = nil
	bc.utxos = make(map[chainhash.Hash]utxoEntry)
	return nil
}

// Store is the on-disk form of a persisted blockchain (spec.md §6): a
// bbolt database holding one zstd-compressed CBOR blob, the encoding of
// blockchainSnapshot. Grounded on internal/sharechain's
// NewBoltStore/Add/Get/Close shape — bbolt is the file transport, the
// CBOR shadow struct is the persisted contract spec.md §6/§8 describe.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens (creating if necessary) the bbolt database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("chain: init store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// HasSnapshot reports whether s holds a previously-saved chain, so callers
// can distinguish a freshly created database (nothing to load) from one
// that simply persisted a zero-height chain.
func (s *Store) HasSnapshot() (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(snapshotBucket).Get(snapshotKey) != nil
		return nil
	})
	return found, err
}

// Save persists bc as a single CBOR blob via MarshalCBOR. The reader lock
// inside MarshalCBOR is held only long enough to copy the in-memory state;
// every bbolt write happens after it's released, per spec.md §5's "never
// hold the lock across I/O" discipline.
func (bc *Blockchain) Save(s *Store) error {
	data, err := bc.MarshalCBOR()
	if err != nil {
		return fmt.Errorf("marshal blockchain: %w", err)
	}
	compressed := blockEncoder.EncodeAll(data, nil)

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put(snapshotKey, compressed)
	})
}

// Load replaces bc's blocks and target with whatever is persisted in s via
// UnmarshalCBOR; the mempool and UTXO index are cleared, matching spec.md
// §6 — callers must follow Load with RebuildUTXOs then TryAdjustTarget.
func (bc *Blockchain) Load(s *Store) error {
	var compressed []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket(snapshotBucket).Get(snapshotKey); raw != nil {
			compressed = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("chain: load store: %w", err)
	}
	if compressed == nil {
		return nil
	}

	data, err := blockDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	return bc.UnmarshalCBOR(data)
}
