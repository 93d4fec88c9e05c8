package engine

import (
	"sync"
	"time"

	"ghostline/types"
)

const (
	trackingMaxRecords = 512
	trackingMaxAge     = 10 * time.Minute
)

// trackingStore is a bounded map of live completion records keyed by
// completion id. Records leave via resolve (absence), accept, an age sweep,
// or capacity eviction of the oldest record. A plain mutex map is used
// because the acceptance scan iterates all records for a filepath, which a
// cache without iteration cannot serve.
type trackingStore struct {
	mu      sync.Mutex
	records map[string]*types.TrackingRecord
}

func newTrackingStore() *trackingStore {
	return &trackingStore{records: make(map[string]*types.TrackingRecord)}
}

func (s *trackingStore) put(rec *types.TrackingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) >= trackingMaxRecords {
		s.evictOldestLocked()
	}
	s.records[rec.CompletionID] = rec
}

func (s *trackingStore) get(completionID string) *types.TrackingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[completionID]
}

func (s *trackingStore) remove(completionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, completionID)
}

// setText attaches the completion text to a live record.
func (s *trackingStore) setText(completionID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[completionID]; ok {
		rec.Text = text
	}
}

// matchInsertion finds the first record for filePath whose text is a prefix
// of inserted or vice versa, removes it and returns it. Filepath equality is
// checked first so an unrelated file's insertion can never match.
func (s *trackingStore) matchInsertion(filePath, inserted string) *types.TrackingRecord {
	if inserted == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if rec.FilePath != filePath || rec.Text == "" {
			continue
		}
		if hasPrefixEitherWay(rec.Text, inserted) {
			delete(s.records, id)
			return rec
		}
	}
	return nil
}

// sweep drops records older than trackingMaxAge and returns how many were
// removed.
func (s *trackingStore) sweep() int {
	cutoff := time.Now().Add(-trackingMaxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.records {
		if rec.StartedAt.Before(cutoff) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

func (s *trackingStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *trackingStore) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, rec := range s.records {
		if oldestID == "" || rec.StartedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = rec.StartedAt
		}
	}
	if oldestID != "" {
		delete(s.records, oldestID)
	}
}

func hasPrefixEitherWay(a, b string) bool {
	if len(a) <= len(b) {
		return b[:len(a)] == a
	}
	return a[:len(b)] == b
}
