package setstore

import (
	"context"
	"sync"
)

// Named sets of string values, eg banned repost source ids.
type SetStore interface {
	InSet(ctx context.Context, name, val string) (bool, error)
}

// In-process SetStore. Sets are normally filled once from configuration at startup.
type MemSetStore struct {
	lk   sync.RWMutex
	sets map[string]map[string]struct{}
}

var _ SetStore = (*MemSetStore)(nil)

func NewMemSetStore() *MemSetStore {
	return &MemSetStore{
		sets: make(map[string]map[string]struct{}),
	}
}

// An unknown set name is treated as an empty set.
func (s *MemSetStore) InSet(ctx context.Context, name, val string) (bool, error) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	_, member := s.sets[name][val]
	return member, nil
}

func (s *MemSetStore) Add(name string, vals ...string) {
	s.lk.Lock()
	defer s.lk.Unlock()
	members, exists := s.sets[name]
	if !exists {
		members = make(map[string]struct{}, len(vals))
		s.sets[name] = members
	}
	for _, v := range vals {
		members[v] = struct{}{}
	}
}

func (s *MemSetStore) Len(name string) int {
	s.lk.RLock()
	defer s.lk.RUnlock()
	return len(s.sets[name])
}
