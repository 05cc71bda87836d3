package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"studyquiz-service/internal/domain"
)

// ScoreService is the ranking engine: it reconciles score submissions against
// stored best-score records and recomputes ranks for the whole test code.
// Rank recomputation is serialized per test code so two concurrent
// submissions cannot interleave their read-recompute-write cycles.
type ScoreService struct {
	scores    ScoreRepository
	testCodes TestCodeRepository
	users     UserRepository
	clock     func() time.Time
	locks     codeLocks
	hub       leaderboardHub
}

func NewScoreService(scores ScoreRepository, testCodes TestCodeRepository, users UserRepository) *ScoreService {
	return &ScoreService{
		scores:    scores,
		testCodes: testCodes,
		users:     users,
		clock:     time.Now,
	}
}

// NewScoreServiceWithClock is test-only for deterministic timestamps.
func NewScoreServiceWithClock(scores ScoreRepository, testCodes TestCodeRepository, users UserRepository, now func() time.Time) *ScoreService {
	s := NewScoreService(scores, testCodes, users)
	s.clock = now
	return s
}

// SubmitScore applies the upsert-or-improve rule for the submitter's record,
// recomputes ranks for every record under the test code, and returns the
// submitter's standing. A submission that does not beat the stored record is
// not an error; the current standings are returned unchanged.
func (s *ScoreService) SubmitScore(ctx context.Context, testCode, userID string, score, totalQuestions, timeTaken int) (domain.SubmissionResult, error) {
	if totalQuestions <= 0 {
		return domain.SubmissionResult{}, domain.Validationf("totalQuestions must be positive")
	}
	if score < 0 || timeTaken < 0 {
		return domain.SubmissionResult{}, domain.Validationf("score and timeTaken must not be negative")
	}

	def, err := s.testCodes.FindByCode(ctx, testCode)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if !def.Active {
		return domain.SubmissionResult{}, domain.ErrTestCodeInactive
	}

	unlock := s.locks.lock(testCode)
	defer unlock()

	candidate := domain.ScoreRecord{
		TestCode:       testCode,
		UserID:         userID,
		Score:          score,
		TotalQuestions: totalQuestions,
		TimeTaken:      timeTaken,
		LastUpdated:    s.clock(),
	}

	improved, err := s.reconcile(ctx, candidate)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	all, err := s.scores.ListByTestCode(ctx, testCode)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	ranked := ComputeRanks(all)
	if err := s.scores.UpdateRanks(ctx, testCode, ranked); err != nil {
		return domain.SubmissionResult{}, err
	}

	result := domain.SubmissionResult{TotalParticipants: len(ranked), Improved: improved}
	for _, rec := range ranked {
		if rec.UserID == userID {
			result.Record = rec
			result.Rank = rec.Rank
			break
		}
	}

	if lb, err := s.assembleLeaderboard(ctx, def, ranked); err == nil {
		s.hub.broadcast(testCode, lb)
	}
	return result, nil
}

// reconcile creates the record on first submission or replaces the stored one
// only when the candidate is strictly better. Reports whether a write of the
// submitted values happened. A lost create race surfaces as ErrDuplicateScore
// and is retried once as an update against the winner's record.
func (s *ScoreService) reconcile(ctx context.Context, candidate domain.ScoreRecord) (bool, error) {
	existing, err := s.scores.Find(ctx, candidate.TestCode, candidate.UserID)
	switch {
	case errors.Is(err, domain.ErrScoreNotFound):
		if _, err := s.scores.Create(ctx, candidate); err == nil {
			return true, nil
		} else if !errors.Is(err, domain.ErrDuplicateScore) {
			return false, err
		}
		// Lost the first-submission race; re-read and fall through to the
		// improve decision against the record that won.
		existing, err = s.scores.Find(ctx, candidate.TestCode, candidate.UserID)
		if err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	}

	if !candidate.BetterThan(existing) {
		return false, nil
	}
	existing.Score = candidate.Score
	existing.TotalQuestions = candidate.TotalQuestions
	existing.TimeTaken = candidate.TimeTaken
	existing.LastUpdated = candidate.LastUpdated
	if _, err := s.scores.Update(ctx, existing); err != nil {
		return false, err
	}
	return true, nil
}

// GetLeaderboard returns the ranked view for a test code. A valid code with
// zero submissions yields an empty leaderboard, not an error.
func (s *ScoreService) GetLeaderboard(ctx context.Context, testCode string) (domain.Leaderboard, error) {
	def, err := s.testCodes.FindByCode(ctx, testCode)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	records, err := s.scores.ListByTestCode(ctx, testCode)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return s.assembleLeaderboard(ctx, def, ComputeRanks(records))
}

// UserScores lists a user's score records newest first, each joined with the
// owning test's metadata. Tests deleted out-of-band yield a nil TestDetails.
func (s *ScoreService) UserScores(ctx context.Context, userID string) ([]domain.UserScore, error) {
	records, err := s.scores.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastUpdated.After(records[j].LastUpdated)
	})

	scores := make([]domain.UserScore, 0, len(records))
	for _, rec := range records {
		us := domain.UserScore{ScoreRecord: rec}
		if def, err := s.testCodes.FindByCode(ctx, rec.TestCode); err == nil {
			info := def.Info()
			us.TestDetails = &info
		}
		scores = append(scores, us)
	}
	return scores, nil
}

// Subscribe returns a channel receiving leaderboard updates for a test code.
// The caller must invoke the cancel function to avoid leaks.
func (s *ScoreService) Subscribe(ctx context.Context, testCode string) (<-chan domain.Leaderboard, func(), error) {
	lb, err := s.GetLeaderboard(ctx, testCode)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(testCode)
	ch <- lb
	return ch, cancel, nil
}

func (s *ScoreService) assembleLeaderboard(ctx context.Context, def domain.TestDefinition, ranked []domain.ScoreRecord) (domain.Leaderboard, error) {
	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for _, rec := range ranked {
		entry := domain.LeaderboardEntry{
			Rank:           rec.Rank,
			UserID:         rec.UserID,
			Score:          rec.Score,
			TotalQuestions: rec.TotalQuestions,
			TimeTaken:      rec.TimeTaken,
			LastUpdated:    rec.LastUpdated,
		}
		if user, err := s.users.FindByID(ctx, rec.UserID); err == nil {
			entry.Username = user.Username
			entry.Email = user.Email
		}
		entries = append(entries, entry)
	}
	return domain.Leaderboard{TestInfo: def.Info(), Entries: entries}, nil
}

// codeLocks serializes rank recomputation per test code. Entries are
// refcounted so idle codes do not accumulate.
type codeLocks struct {
	mu      sync.Mutex
	entries map[string]*codeLock
}

type codeLock struct {
	mu   sync.Mutex
	refs int
}

func (l *codeLocks) lock(code string) (unlock func()) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*codeLock)
	}
	entry, ok := l.entries[code]
	if !ok {
		entry = &codeLock{}
		l.entries[code] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, code)
		}
		l.mu.Unlock()
	}
}

// leaderboardHub fans leaderboard updates out to websocket subscribers.
type leaderboardHub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Leaderboard]struct{}
}

func (h *leaderboardHub) subscribe(testCode string) (chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[string]map[chan domain.Leaderboard]struct{})
	}
	if h.subs[testCode] == nil {
		h.subs[testCode] = make(map[chan domain.Leaderboard]struct{})
	}
	h.subs[testCode][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[testCode]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, testCode)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *leaderboardHub) broadcast(testCode string, lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[testCode] {
		select {
		case ch <- lb:
		default:
			// Drop the stale update so a slow client never blocks broadcast.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
