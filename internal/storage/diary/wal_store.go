// Package diary stores trade reflections in a WAL.
package diary

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

const (
	DefaultDir     = "./data/diary"
	segmentLimit   = 100
	maxSegments    = 10
	entryKeyPrefix = "diary_entry_"
)

// WALStore persists diary entries in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
	now func() time.Time
}

// NewWALStore initializes a WAL-backed diary.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "diary_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init diary WAL")
	}

	return &WALStore{wal: wal, now: time.Now}, nil
}

// Create validates the entry, assigns its id and date and writes it to the WAL.
func (s *WALStore) Create(ctx context.Context, entry domain.DiaryEntry) (string, error) {
	if s == nil || s.wal == nil {
		return "", errors.New("diary is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := entry.Validate(); err != nil {
		return "", errors.Wrap(err, "invalid diary entry")
	}

	entry.ID = uuid.NewString()
	entry.Date = s.now().UTC()

	payload, err := json.Marshal(entry)
	if err != nil {
		return "", errors.Wrap(err, "marshal diary entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wal.Write(s.wal.CurrentIndex()+1, entryKeyPrefix+entry.ID, payload); err != nil {
		return "", errors.Wrap(err, "write diary entry")
	}
	return entry.ID, nil
}

// Entries returns every stored entry in write order.
func (s *WALStore) Entries() ([]domain.DiaryEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("diary is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	entries := make([]domain.DiaryEntry, 0, current)
	for idx := uint64(1); idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, entryKeyPrefix) {
			continue
		}

		var entry domain.DiaryEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, errors.Wrap(err, "decode diary entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("diary is not initialized")
	}
	return s.wal.Close()
}
