// Package store persists the simulated chain between CLI invocations in a
// bbolt database.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"go.etcd.io/bbolt"
)

// FileName is the database file created inside the config directory.
const FileName = "chain.db"

var (
	bucketMeta      = []byte("meta")
	bucketAccounts  = []byte("accounts")
	bucketContracts = []byte("contracts")
	bucketReceipts  = []byte("receipts")

	keyMeta = []byte("chain")
)

// ErrNoSnapshot is returned by LoadSnapshot on a fresh database.
var ErrNoSnapshot = errors.New("store: no snapshot saved")

type meta struct {
	ChainID     *big.Int
	BlockNumber uint64
	BlockTime   uint64
	TimeOffset  time.Duration
	SavedAt     time.Time
}

// Store wraps a bbolt database holding one chain.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path. The parent directory is
// created if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketAccounts, bucketContracts, bucketReceipts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.db.Path() }

// SaveSnapshot replaces the stored chain state with snap. Receipts are
// append-only: only those past the stored count are written, unless snap
// holds fewer than are stored, in which case the log is rewritten.
func (s *Store) SaveSnapshot(snap *chain.Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		m, err := encodeGob(meta{
			ChainID:     snap.ChainID,
			BlockNumber: snap.BlockNumber,
			BlockTime:   snap.BlockTime,
			TimeOffset:  snap.TimeOffset,
			SavedAt:     time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("store: encode meta: %w", err)
		}
		if err := tx.Bucket(bucketMeta).Put(keyMeta, m); err != nil {
			return fmt.Errorf("store: put meta: %w", err)
		}

		accounts, err := resetBucket(tx, bucketAccounts)
		if err != nil {
			return err
		}
		for addr, acct := range snap.Accounts {
			if err := putGob(accounts, addr.Bytes(), acct); err != nil {
				return fmt.Errorf("store: put account %s: %w", addr.Hex(), err)
			}
		}

		contracts, err := resetBucket(tx, bucketContracts)
		if err != nil {
			return err
		}
		for addr, cs := range snap.Contracts {
			if err := putGob(contracts, addr.Bytes(), cs); err != nil {
				return fmt.Errorf("store: put contract %s: %w", addr.Hex(), err)
			}
		}

		receipts := tx.Bucket(bucketReceipts)
		stored := receipts.Sequence()
		if uint64(len(snap.Receipts)) < stored {
			if receipts, err = resetBucket(tx, bucketReceipts); err != nil {
				return err
			}
			stored = 0
		}
		return appendReceipts(receipts, snap.Receipts[stored:])
	})
}

// LoadSnapshot reads the stored chain state.
func (s *Store) LoadSnapshot() (*chain.Snapshot, error) {
	snap := &chain.Snapshot{
		Accounts:  make(map[common.Address]chain.Account),
		Contracts: make(map[common.Address]chain.ContractState),
	}
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyMeta)
		if data == nil {
			return ErrNoSnapshot
		}
		var m meta
		if err := decodeGob(data, &m); err != nil {
			return fmt.Errorf("store: decode meta: %w", err)
		}
		snap.ChainID = m.ChainID
		snap.BlockNumber = m.BlockNumber
		snap.BlockTime = m.BlockTime
		snap.TimeOffset = m.TimeOffset

		err := tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
			var acct chain.Account
			if err := decodeGob(v, &acct); err != nil {
				return fmt.Errorf("store: decode account: %w", err)
			}
			snap.Accounts[common.BytesToAddress(k)] = acct
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketContracts).ForEach(func(k, v []byte) error {
			var cs chain.ContractState
			if err := decodeGob(v, &cs); err != nil {
				return fmt.Errorf("store: decode contract: %w", err)
			}
			snap.Contracts[common.BytesToAddress(k)] = cs
			return nil
		})
		if err != nil {
			return err
		}

		snap.Receipts, err = readReceipts(tx.Bucket(bucketReceipts), 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// AppendReceipts adds receipts to the end of the log.
func (s *Store) AppendReceipts(rs ...*chain.TxReceipt) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return appendReceipts(tx.Bucket(bucketReceipts), rs)
	})
}

// Receipts returns the last limit receipts in mining order. A limit of
// zero or less returns all of them.
func (s *Store) Receipts(limit int) ([]*chain.TxReceipt, error) {
	var out []*chain.TxReceipt
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = readReceipts(tx.Bucket(bucketReceipts), limit)
		return err
	})
	return out, err
}

// SavedAt returns when the snapshot was last written.
func (s *Store) SavedAt() (time.Time, error) {
	var m meta
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyMeta)
		if data == nil {
			return ErrNoSnapshot
		}
		return decodeGob(data, &m)
	})
	return m.SavedAt, err
}

// Reset wipes every bucket.
func (s *Store) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketAccounts, bucketContracts, bucketReceipts} {
			if _, err := resetBucket(tx, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func appendReceipts(b *bbolt.Bucket, rs []*chain.TxReceipt) error {
	for _, r := range rs {
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("store: next receipt sequence: %w", err)
		}
		if err := putGob(b, seqKey(seq), r); err != nil {
			return fmt.Errorf("store: put receipt %s: %w", r.TxHash.Hex(), err)
		}
	}
	return nil
}

func readReceipts(b *bbolt.Bucket, limit int) ([]*chain.TxReceipt, error) {
	var out []*chain.TxReceipt
	c := b.Cursor()
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		if limit > 0 && len(out) == limit {
			break
		}
		var r chain.TxReceipt
		if err := decodeGob(v, &r); err != nil {
			return nil, fmt.Errorf("store: decode receipt: %w", err)
		}
		out = append(out, &r)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func resetBucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return nil, fmt.Errorf("store: delete bucket %q: %w", name, err)
		}
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return nil, fmt.Errorf("store: create bucket %q: %w", name, err)
	}
	return b, nil
}

// seqKey encodes a sequence number as an 8-byte big-endian key so cursor
// order is insertion order.
func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

func putGob(b *bbolt.Bucket, key []byte, v interface{}) error {
	data, err := encodeGob(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
