package glossary

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type memoryStore struct {
	pairs map[string]map[string]string
	mutex sync.RWMutex
}

// NewMemory builds an in-memory glossary store.
func NewMemory() Store {
	return &memoryStore{
		pairs: make(map[string]map[string]string),
	}
}

func (s *memoryStore) Put(_ context.Context, pair string, term, translation string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	if pair == "" || term == "" {
		return fmt.Errorf("pair and term required")
	}

	s.mutex.Lock()
	terms, ok := s.pairs[pair]
	if !ok {
		terms = make(map[string]string)
		s.pairs[pair] = terms
	}
	terms[term] = translation
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Terms(_ context.Context, pair string) (map[string]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(map[string]string, len(s.pairs[pair]))
	for term, translation := range s.pairs[pair] {
		out[term] = translation
	}
	return out, nil
}

func (s *memoryStore) Remove(_ context.Context, pair string, term string) error {
	term = strings.ToLower(strings.TrimSpace(term))

	s.mutex.Lock()
	if terms, ok := s.pairs[pair]; ok {
		delete(terms, term)
		if len(terms) == 0 {
			delete(s.pairs, pair)
		}
	}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Pairs(_ context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	pairs := make([]string, 0, len(s.pairs))
	for pair := range s.pairs {
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	total := 0
	for _, terms := range s.pairs {
		total += len(terms)
	}
	return map[string]any{
		"type":  "memory",
		"pairs": len(s.pairs),
		"terms": total,
	}, nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}
