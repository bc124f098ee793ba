// Package session holds the ephemeral handoff between the scan page and the
// report page. The full analysis result is stored as serialized text under a
// fixed key, read once by the report view, and evicted on a timer. Nothing
// here survives a server restart.
package session

import (
	"fmt"
	"sync"
	"time"
)

// ResultKey is the fixed key the scan page stores the analysis result
// under and the report page reads it from.
const ResultKey = "analysis_result"

// entry is one scan's session data.
type entry struct {
	values    map[string]string
	createdAt time.Time
}

// Store is an in-memory per-scan key/value store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

// Put stores serialized text under key for the given scan, creating the
// session entry if needed.
func (s *Store) Put(scanID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[scanID]
	if !ok {
		e = &entry{
			values:    make(map[string]string),
			createdAt: time.Now(),
		}
		s.entries[scanID] = e
	}
	e.values[key] = value
}

// Get returns the stored text for a scan and key.
func (s *Store) Get(scanID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[scanID]
	if !ok {
		return "", fmt.Errorf("session not found: %s", scanID)
	}
	v, ok := e.values[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	return v, nil
}

// Delete removes a scan's session entry.
func (s *Store) Delete(scanID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, scanID)
}

// Len returns the number of live session entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CleanupOldSessions evicts entries older than maxAge and returns how many
// were removed.
func (s *Store) CleanupOldSessions(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, e := range s.entries {
		if e.createdAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
