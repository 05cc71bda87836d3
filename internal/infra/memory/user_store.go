package memory

import (
	"context"
	"strings"
	"sync"

	"studyquiz-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserRepository. History is
// embedded per user, mirroring the document layout of the Postgres schema's
// quiz_history table.
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	history map[string][]domain.QuizHistoryEntry
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]domain.User),
		history: make(map[string][]domain.QuizHistoryEntry),
	}
}

func (s *UserStore) Create(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return domain.User{}, domain.ErrDuplicateUser
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserStore) FindByIdentifier(_ context.Context, identifier string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == identifier || user.Email == strings.ToLower(identifier) {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *UserStore) Update(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return domain.User{}, domain.ErrDuplicateUser
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *UserStore) AppendHistory(_ context.Context, userID string, entry domain.QuizHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	s.history[userID] = append(s.history[userID], entry)
	return nil
}

func (s *UserStore) History(_ context.Context, userID string) ([]domain.QuizHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]domain.QuizHistoryEntry, len(s.history[userID]))
	copy(entries, s.history[userID])
	return entries, nil
}

// AdminStore is an in-memory implementation of app.AdminRepository.
type AdminStore struct {
	mu     sync.RWMutex
	admins map[string]domain.Admin
}

func NewAdminStore() *AdminStore {
	return &AdminStore{admins: make(map[string]domain.Admin)}
}

func (s *AdminStore) Create(_ context.Context, admin domain.Admin) (domain.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if existing.Email == admin.Email {
			return domain.Admin{}, domain.ErrDuplicateUser
		}
	}
	s.admins[admin.ID] = admin
	return admin, nil
}

func (s *AdminStore) FindByEmail(_ context.Context, email string) (domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, admin := range s.admins {
		if admin.Email == email {
			return admin, nil
		}
	}
	return domain.Admin{}, domain.ErrUserNotFound
}
