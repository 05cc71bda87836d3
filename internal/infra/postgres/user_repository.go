package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"studyquiz-service/internal/domain"
)

// UserRepository persists student accounts and their quiz history.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, name, password_hash, created_at`

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Email, user.Name, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return domain.User{}, domain.ErrDuplicateUser
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE username=$1 OR email=$2`,
		identifier, strings.ToLower(identifier))
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Username, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name=$2, email=$3 WHERE id=$1`,
		user.ID, user.Name, user.Email)
	if isUniqueViolation(err) {
		return domain.User{}, domain.ErrDuplicateUser
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepository) AppendHistory(ctx context.Context, userID string, entry domain.QuizHistoryEntry) error {
	key := sql.NullString{String: entry.IdempotencyKey, Valid: entry.IdempotencyKey != ""}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO quiz_history (id, user_id, subject, topic, score, total_questions, test_code, rank, total_participants, idempotency_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, userID, entry.Subject, entry.Topic, entry.Score, entry.TotalQuestions,
		entry.TestCode, entry.Rank, entry.TotalParticipants, key, entry.Date)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (r *UserRepository) History(ctx context.Context, userID string) ([]domain.QuizHistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject, topic, score, total_questions, test_code, rank, total_participants, idempotency_key, created_at
		 FROM quiz_history WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var entries []domain.QuizHistoryEntry
	for rows.Next() {
		var entry domain.QuizHistoryEntry
		var key sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Subject, &entry.Topic, &entry.Score, &entry.TotalQuestions,
			&entry.TestCode, &entry.Rank, &entry.TotalParticipants, &key, &entry.Date); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entry.IdempotencyKey = key.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AdminRepository persists admin accounts.
type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) Create(ctx context.Context, admin domain.Admin) (domain.Admin, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admins (id, name, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		admin.ID, admin.Name, admin.Email, admin.PasswordHash, admin.CreatedAt)
	if isUniqueViolation(err) {
		return domain.Admin{}, domain.ErrDuplicateUser
	}
	if err != nil {
		return domain.Admin{}, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (domain.Admin, error) {
	var admin domain.Admin
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at FROM admins WHERE email=$1`, email,
	).Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Admin{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.Admin{}, fmt.Errorf("find admin: %w", err)
	}
	return admin, nil
}
