package memory

import (
	"context"
	"sort"
	"sync"

	"studyquiz-service/internal/domain"
)

// TestCodeStore is an in-memory implementation of app.TestCodeRepository.
type TestCodeStore struct {
	mu    sync.RWMutex
	codes map[string]domain.TestDefinition
}

func NewTestCodeStore() *TestCodeStore {
	return &TestCodeStore{codes: make(map[string]domain.TestDefinition)}
}

// Seed inserts definitions directly, bypassing uniqueness checks (tests/demo).
func (s *TestCodeStore) Seed(defs ...domain.TestDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, def := range defs {
		s.codes[def.Code] = def
	}
}

func (s *TestCodeStore) FindByCode(_ context.Context, code string) (domain.TestDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.codes[code]
	if !ok {
		return domain.TestDefinition{}, domain.ErrTestCodeNotFound
	}
	return def, nil
}

func (s *TestCodeStore) Create(_ context.Context, def domain.TestDefinition) (domain.TestDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codes[def.Code]; exists {
		return domain.TestDefinition{}, domain.ErrDuplicateTestCode
	}
	s.codes[def.Code] = def
	return def, nil
}

func (s *TestCodeStore) ListByCreator(_ context.Context, adminID string) ([]domain.TestDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var defs []domain.TestDefinition
	for _, def := range s.codes {
		if def.CreatedBy == adminID {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].CreatedAt.After(defs[j].CreatedAt)
	})
	return defs, nil
}

func (s *TestCodeStore) Deactivate(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.codes[code]
	if !ok {
		return domain.ErrTestCodeNotFound
	}
	def.Active = false
	s.codes[code] = def
	return nil
}
