// Package cache implements the two-tier metrics cache: a bounded in-process
// LRU keyed by window content hash, backed by the sqlite rows in internal/db
// keyed by the full analysis tuple. Reads check the LRU first, then the
// store; writes go through both tiers, and a failed persistent write is
// returned to the caller, never swallowed.
package cache

import (
	"database/sql"
	"sync/atomic"

	"speech_tracker/internal/db"
)

type Store struct {
	conn *sql.DB
	mem  *lru

	memHits   atomic.Int64
	storeHits atomic.Int64
	misses    atomic.Int64
	writes    atomic.Int64
}

// Stats is the cache's performance signal. A near-zero hit rate across
// repeated runs of an unchanged document means the cache is broken, not that
// the workload changed.
type Stats struct {
	MemoryHits int64
	StoreHits  int64
	Misses     int64
	Writes     int64
}

func (s Stats) Hits() int64 { return s.MemoryHits + s.StoreHits }

func (s Stats) HitRate() float64 {
	total := s.Hits() + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits()) / float64(total)
}

// NewStore wires the LRU tier over an open database. conn may be nil, in
// which case only the in-memory tier is active (tests, ephemeral runs).
func NewStore(conn *sql.DB, maxEntries int) *Store {
	return &Store{conn: conn, mem: newLRU(maxEntries)}
}

// Get returns the cached serialized metrics for the window, consulting the
// LRU and then the persistent store. A persistent-store hit is promoted into
// the LRU.
func (s *Store) Get(key Key, contentHash string) ([]byte, bool, error) {
	if data, ok := s.mem.get(contentHash); ok {
		s.memHits.Add(1)
		return data, true, nil
	}
	if s.conn != nil {
		data, ok, err := db.GetCachedMetrics(s.conn, key.Project, key.Character, key.StartChapter, key.EndChapter, key.Fingerprint, key.ConfigHash)
		if err != nil {
			return nil, false, err
		}
		if ok {
			s.mem.put(contentHash, data)
			s.storeHits.Add(1)
			return data, true, nil
		}
	}
	s.misses.Add(1)
	return nil, false, nil
}

// Put writes through both tiers. The persistent write happens first; if it
// fails the LRU is left untouched and the error propagates.
func (s *Store) Put(key Key, contentHash string, data []byte) error {
	if s.conn != nil {
		if err := db.PutCachedMetrics(s.conn, key.Project, key.Character, key.StartChapter, key.EndChapter, key.Fingerprint, key.ConfigHash, data); err != nil {
			return err
		}
	}
	s.mem.put(contentHash, data)
	s.writes.Add(1)
	return nil
}

func (s *Store) Stats() Stats {
	return Stats{
		MemoryHits: s.memHits.Load(),
		StoreHits:  s.storeHits.Load(),
		Misses:     s.misses.Load(),
		Writes:     s.writes.Load(),
	}
}
