package pipeline

import "sync"

// DedupStore is the at-most-once delivery guard. Keys accumulate for the
// process lifetime and are never cleared; growth is proportional to
// notification volume, which is an accepted trade-off for a bridge that
// restarts with its platform session.
type DedupStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupStore() *DedupStore {
	return &DedupStore{seen: make(map[string]struct{})}
}

// AdmitOnce returns true exactly once per distinct key.
func (s *DedupStore) AdmitOnce(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}
