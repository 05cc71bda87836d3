package domain

import "time"

// TestDefinition is an admin-issued test scoped to a subject/topic/difficulty.
// Immutable after creation except for the Active flag (soft deactivation).
type TestDefinition struct {
	Code       string    `json:"testCode"`
	Subject    string    `json:"subject"`
	Topic      string    `json:"topic"`
	Difficulty string    `json:"difficulty"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	Active     bool      `json:"isActive"`
}

// TestInfo is the descriptive subset of a TestDefinition exposed to students.
type TestInfo struct {
	Code       string `json:"testCode"`
	Subject    string `json:"subject"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

func (t TestDefinition) Info() TestInfo {
	return TestInfo{Code: t.Code, Subject: t.Subject, Topic: t.Topic, Difficulty: t.Difficulty}
}

// ScoreRecord is a user's best result for one test code. At most one record
// exists per (test code, user); Rank is derived and owned by the ranking engine.
type ScoreRecord struct {
	TestCode       string    `json:"testCode"`
	UserID         string    `json:"userId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeTaken      int       `json:"timeTaken"` // seconds
	Rank           int       `json:"rank"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// BetterThan reports whether r beats other under the competition ordering:
// higher score wins outright, equal score with lower time wins.
func (r ScoreRecord) BetterThan(other ScoreRecord) bool {
	if r.Score != other.Score {
		return r.Score > other.Score
	}
	return r.TimeTaken < other.TimeTaken
}

// LeaderboardEntry joins a ranked score record with the owner's identity.
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeTaken      int       `json:"timeTaken"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// Leaderboard is the full ranked view for one test code.
type Leaderboard struct {
	TestInfo TestInfo           `json:"testInfo"`
	Entries  []LeaderboardEntry `json:"leaderboard"`
}

// SubmissionResult is returned to the submitter after a score is reconciled.
type SubmissionResult struct {
	Record            ScoreRecord `json:"result"`
	Rank              int         `json:"rank"`
	TotalParticipants int         `json:"totalParticipants"`
	Improved          bool        `json:"improved"`
}

// User is a student account. Admins are a separate entity (see Admin).
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Admin issues test codes and inspects leaderboards.
type Admin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// QuizHistoryEntry is a write-once record of a completed quiz, with the rank
// and participant count snapshotted at recording time.
type QuizHistoryEntry struct {
	ID                string    `json:"id"`
	Subject           string    `json:"subject"`
	Topic             string    `json:"topic"`
	Score             int       `json:"score"`
	TotalQuestions    int       `json:"totalQuestions"`
	TestCode          string    `json:"testCode,omitempty"`
	Rank              int       `json:"rank"`
	TotalParticipants int       `json:"totalParticipants"`
	IdempotencyKey    string    `json:"-"`
	Date              time.Time `json:"date"`
}

// QuizSpec is the input to question generation.
type QuizSpec struct {
	Subject    string
	Topic      string
	Difficulty string
}

// Question is a generated multiple-choice question. CorrectAnswer is the full
// text of one of the options.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// UserScore is a score record joined with the test's descriptive metadata,
// used for the per-user score history view.
type UserScore struct {
	ScoreRecord
	TestDetails *TestInfo `json:"testDetails"`
}
