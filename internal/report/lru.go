package report

import "sync"

// LRUStore is an in-memory LRU cache that delegates to a backing Store
// on miss. The capacity is small (a handful of recent runs), so the
// recency order is kept as a plain slice with the most recent ID first.
type LRUStore struct {
	mu    sync.Mutex
	cap   int
	back  Store
	order []string // run IDs, most recent first
	items map[string]*RunResult
}

// NewLRUStore creates an LRU cache with the given capacity that
// delegates to back on cache misses. Capacity must be >= 1.
func NewLRUStore(cap int, back Store) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		back:  back,
		items: make(map[string]*RunResult, cap),
	}
}

// Save writes the result to the LRU cache and delegates to the backing store.
func (s *LRUStore) Save(result *RunResult) error {
	s.mu.Lock()
	s.insert(result)
	s.mu.Unlock()

	return s.back.Save(result)
}

// Load checks the LRU cache first. On miss, loads from the backing
// store and promotes the result into the cache.
func (s *LRUStore) Load(runID string) (*RunResult, error) {
	s.mu.Lock()
	if r, ok := s.items[runID]; ok {
		s.touch(runID)
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	result, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.insert(result)
	s.mu.Unlock()

	return result, nil
}

// insert adds or refreshes a result and evicts the least recent entry
// when over capacity. Caller holds mu.
func (s *LRUStore) insert(result *RunResult) {
	if _, ok := s.items[result.ID]; ok {
		s.items[result.ID] = result
		s.touch(result.ID)
		return
	}

	s.items[result.ID] = result
	s.order = append([]string{result.ID}, s.order...)
	if len(s.order) > s.cap {
		evicted := s.order[len(s.order)-1]
		s.order = s.order[:len(s.order)-1]
		delete(s.items, evicted)
	}
}

// touch moves runID to the front of the recency order. Caller holds mu.
func (s *LRUStore) touch(runID string) {
	for i, id := range s.order {
		if id == runID {
			if i == 0 {
				return
			}
			copy(s.order[1:i+1], s.order[:i])
			s.order[0] = runID
			return
		}
	}
}
