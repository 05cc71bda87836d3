package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"studyquiz-service/internal/domain"
)

// uniqueViolation is the Postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ScoreRepository persists score records in the test_scores table. The
// primary key (test_code, user_id) enforces the one-record-per-user rule;
// a lost insert race surfaces as domain.ErrDuplicateScore.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

const scoreColumns = `test_code, user_id, score, total_questions, time_taken, rank, last_updated`

func (r *ScoreRepository) ListByTestCode(ctx context.Context, testCode string) ([]domain.ScoreRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+scoreColumns+` FROM test_scores WHERE test_code=$1`, testCode)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()
	return scanScores(rows)
}

func (r *ScoreRepository) ListByUser(ctx context.Context, userID string) ([]domain.ScoreRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+scoreColumns+` FROM test_scores WHERE user_id=$1 ORDER BY last_updated DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user scores: %w", err)
	}
	defer rows.Close()
	return scanScores(rows)
}

func (r *ScoreRepository) Find(ctx context.Context, testCode, userID string) (domain.ScoreRecord, error) {
	var rec domain.ScoreRecord
	err := r.pool.QueryRow(ctx,
		`SELECT `+scoreColumns+` FROM test_scores WHERE test_code=$1 AND user_id=$2`,
		testCode, userID,
	).Scan(&rec.TestCode, &rec.UserID, &rec.Score, &rec.TotalQuestions, &rec.TimeTaken, &rec.Rank, &rec.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoreRecord{}, domain.ErrScoreNotFound
	}
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("find score: %w", err)
	}
	return rec, nil
}

func (r *ScoreRepository) Create(ctx context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO test_scores (test_code, user_id, score, total_questions, time_taken, rank, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.TestCode, rec.UserID, rec.Score, rec.TotalQuestions, rec.TimeTaken, rec.Rank, rec.LastUpdated)
	if isUniqueViolation(err) {
		return domain.ScoreRecord{}, domain.ErrDuplicateScore
	}
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("create score: %w", err)
	}
	return rec, nil
}

func (r *ScoreRepository) Update(ctx context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_scores SET score=$3, total_questions=$4, time_taken=$5, last_updated=$6
		 WHERE test_code=$1 AND user_id=$2`,
		rec.TestCode, rec.UserID, rec.Score, rec.TotalQuestions, rec.TimeTaken, rec.LastUpdated)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("update score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ScoreRecord{}, domain.ErrScoreNotFound
	}
	return rec, nil
}

// UpdateRanks writes the recomputed ranks in one transaction so readers never
// observe a half-ranked leaderboard.
func (r *ScoreRepository) UpdateRanks(ctx context.Context, testCode string, ranked []domain.ScoreRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rank update: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range ranked {
		if _, err := tx.Exec(ctx,
			`UPDATE test_scores SET rank=$3 WHERE test_code=$1 AND user_id=$2`,
			testCode, rec.UserID, rec.Rank); err != nil {
			return fmt.Errorf("update rank: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func scanScores(rows pgx.Rows) ([]domain.ScoreRecord, error) {
	var records []domain.ScoreRecord
	for rows.Next() {
		var rec domain.ScoreRecord
		if err := rows.Scan(&rec.TestCode, &rec.UserID, &rec.Score, &rec.TotalQuestions, &rec.TimeTaken, &rec.Rank, &rec.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
