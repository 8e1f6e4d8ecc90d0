// Package journal keeps an append-only, WAL-backed record of executed trades and
// the valuation snapshots they produced, for streaming and export.
package journal

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

const (
	DefaultDir      = "./data/journal"
	segmentLimit    = 1000
	maxSegments     = 100
	transactionKey  = "transaction_"
	valuationKey    = "valuation_"
	walSegmentStart = "journal_"
)

// WALStore persists transactions and valuation snapshots in a WAL.
type WALStore struct {
	dir        string
	wal        *gowal.Wal
	generation uint64
	mu         sync.RWMutex
}

// NewWALStore initializes a WAL-backed journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	wal, err := openWAL(dir)
	if err != nil {
		return nil, err
	}

	return &WALStore{dir: dir, wal: wal}, nil
}

func openWAL(dir string) (*gowal.Wal, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           walSegmentStart,
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init journal WAL")
	}
	return wal, nil
}

// Record appends the transaction followed by its valuation snapshot.
func (s *WALStore) Record(tx domain.Transaction, snapshot domain.ValuationSnapshot) error {
	if s == nil || s.wal == nil {
		return errors.New("journal is not initialized")
	}
	if tx.ID == "" {
		return errors.New("transaction id is required")
	}

	txPayload, err := json.Marshal(tx)
	if err != nil {
		return errors.Wrap(err, "marshal transaction")
	}
	snapshotPayload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "marshal valuation snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wal.Write(s.wal.CurrentIndex()+1, transactionKey+tx.ID, txPayload); err != nil {
		return errors.Wrap(err, "write transaction")
	}
	if err := s.wal.Write(s.wal.CurrentIndex()+1, valuationKey+tx.ID, snapshotPayload); err != nil {
		return errors.Wrap(err, "write valuation snapshot")
	}
	return nil
}

// ValuationsAfter returns all valuation snapshots written after the provided WAL index.
func (s *WALStore) ValuationsAfter(index uint64) ([]domain.ValuationRecord, error) {
	var records []domain.ValuationRecord
	err := s.scanAfter(index, valuationKey, func(idx uint64, payload []byte) error {
		var snapshot domain.ValuationSnapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return errors.Wrap(err, "decode valuation snapshot")
		}
		records = append(records, domain.ValuationRecord{Index: idx, Snapshot: snapshot})
		return nil
	})
	return records, err
}

// TransactionsAfter returns all transactions written after the provided WAL index.
func (s *WALStore) TransactionsAfter(index uint64) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord
	err := s.scanAfter(index, transactionKey, func(idx uint64, payload []byte) error {
		var tx domain.Transaction
		if err := json.Unmarshal(payload, &tx); err != nil {
			return errors.Wrap(err, "decode transaction")
		}
		records = append(records, domain.TransactionRecord{Index: idx, Transaction: tx})
		return nil
	})
	return records, err
}

func (s *WALStore) scanAfter(index uint64, prefix string, fn func(idx uint64, payload []byte) error) error {
	if s == nil || s.wal == nil {
		return errors.New("journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := fn(idx, payload); err != nil {
			return err
		}
	}
	return nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Generation counts resets. Indexes are only comparable within one generation.
func (s *WALStore) Generation() uint64 {
	if s == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.generation
}

// Reset drops every record and starts an empty journal.
func (s *WALStore) Reset() error {
	if s == nil || s.wal == nil {
		return errors.New("journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wal.Close(); err != nil {
		return errors.Wrap(err, "close journal WAL")
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return errors.Wrap(err, "remove journal dir")
	}
	s.generation++

	wal, err := openWAL(s.dir)
	if err != nil {
		return err
	}
	s.wal = wal
	return nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
