package memory

import (
	"context"
	"sync"

	"studyquiz-service/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreRepository, keyed by
// (test code, user id) like the unique index in the Postgres schema.
type ScoreStore struct {
	mu      sync.RWMutex
	records map[scoreKey]domain.ScoreRecord
}

type scoreKey struct {
	testCode string
	userID   string
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{records: make(map[scoreKey]domain.ScoreRecord)}
}

func (s *ScoreStore) ListByTestCode(_ context.Context, testCode string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []domain.ScoreRecord
	for key, rec := range s.records {
		if key.testCode == testCode {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *ScoreStore) ListByUser(_ context.Context, userID string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []domain.ScoreRecord
	for key, rec := range s.records {
		if key.userID == userID {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *ScoreStore) Find(_ context.Context, testCode, userID string) (domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[scoreKey{testCode, userID}]
	if !ok {
		return domain.ScoreRecord{}, domain.ErrScoreNotFound
	}
	return rec, nil
}

func (s *ScoreStore) Create(_ context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scoreKey{record.TestCode, record.UserID}
	if _, exists := s.records[key]; exists {
		return domain.ScoreRecord{}, domain.ErrDuplicateScore
	}
	s.records[key] = record
	return record, nil
}

func (s *ScoreStore) Update(_ context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scoreKey{record.TestCode, record.UserID}
	if _, exists := s.records[key]; !exists {
		return domain.ScoreRecord{}, domain.ErrScoreNotFound
	}
	s.records[key] = record
	return record, nil
}

func (s *ScoreStore) UpdateRanks(_ context.Context, testCode string, ranked []domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range ranked {
		key := scoreKey{testCode, rec.UserID}
		if stored, ok := s.records[key]; ok {
			stored.Rank = rec.Rank
			s.records[key] = stored
		}
	}
	return nil
}
