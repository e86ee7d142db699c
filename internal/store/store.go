// Package store provides crash-safe position/PnL persistence using a
// pebble key-value store, one key per symbol. Each value is a gzip'd
// JSON blob of the snapshot fields spec §6 names: position, avg_entry
// price, realized PnL, and day peak equity. Pebble's own write-ahead
// log gives the atomicity the teacher's write-tmp-then-rename dance
// provided for its one-file-per-market JSON layout.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/gzip"

	"hftmm/pkg/types"
)

// Snapshot is the persisted state for one symbol, exactly the fields
// spec §6 names as optionally restorable at startup.
type Snapshot struct {
	Symbol         string      `json:"symbol"`
	Position       types.Qty   `json:"position"`
	AvgEntryPrice  types.Price `json:"avg_entry_price"`
	RealizedPnL    int64       `json:"realized_pnl"`
	DayPeakEquity  int64       `json:"day_peak_equity"`
}

// Store persists symbol snapshots to a pebble keyspace.
type Store struct {
	db *pebble.DB
}

// Open creates or opens a pebble store at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying pebble database.
func (s *Store) Close() error {
	return s.db.Close()
}

func snapshotKey(symbol string) []byte {
	return []byte("snapshot/" + symbol)
}

// SaveSnapshot gzip-compresses and persists snap under its symbol's key.
// pebble.Sync makes the write durable before returning, matching the
// teacher's atomic-rename's crash-safety guarantee.
func (s *Store) SaveSnapshot(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return fmt.Errorf("gzip snapshot: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}

	if err := s.db.Set(snapshotKey(snap.Symbol), buf.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores a symbol's snapshot from disk. Returns
// (Snapshot{}, false, nil) if no snapshot has been saved yet.
func (s *Store) LoadSnapshot(symbol string) (Snapshot, bool, error) {
	value, closer, err := s.db.Get(snapshotKey(symbol))
	if err == pebble.ErrNotFound {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	defer closer.Close()

	gr, err := gzip.NewReader(bytes.NewReader(value))
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("gunzip snapshot: %w", err)
	}
	defer gr.Close()

	var snap Snapshot
	if err := json.NewDecoder(gr).Decode(&snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// DeleteSnapshot removes a symbol's persisted snapshot, if any.
func (s *Store) DeleteSnapshot(symbol string) error {
	if err := s.db.Delete(snapshotKey(symbol), pebble.Sync); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
