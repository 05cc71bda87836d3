package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"studyquiz-service/internal/domain"
)

// TestCodeRepository persists test definitions in the test_codes table.
type TestCodeRepository struct {
	pool *pgxpool.Pool
}

func NewTestCodeRepository(pool *pgxpool.Pool) *TestCodeRepository {
	return &TestCodeRepository{pool: pool}
}

const testCodeColumns = `code, subject, topic, difficulty, created_by, created_at, active`

func (r *TestCodeRepository) FindByCode(ctx context.Context, code string) (domain.TestDefinition, error) {
	var def domain.TestDefinition
	err := r.pool.QueryRow(ctx,
		`SELECT `+testCodeColumns+` FROM test_codes WHERE code=$1`, code,
	).Scan(&def.Code, &def.Subject, &def.Topic, &def.Difficulty, &def.CreatedBy, &def.CreatedAt, &def.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TestDefinition{}, domain.ErrTestCodeNotFound
	}
	if err != nil {
		return domain.TestDefinition{}, fmt.Errorf("find test code: %w", err)
	}
	return def, nil
}

func (r *TestCodeRepository) Create(ctx context.Context, def domain.TestDefinition) (domain.TestDefinition, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO test_codes (code, subject, topic, difficulty, created_by, created_at, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		def.Code, def.Subject, def.Topic, def.Difficulty, def.CreatedBy, def.CreatedAt, def.Active)
	if isUniqueViolation(err) {
		return domain.TestDefinition{}, domain.ErrDuplicateTestCode
	}
	if err != nil {
		return domain.TestDefinition{}, fmt.Errorf("create test code: %w", err)
	}
	return def, nil
}

func (r *TestCodeRepository) ListByCreator(ctx context.Context, adminID string) ([]domain.TestDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+testCodeColumns+` FROM test_codes WHERE created_by=$1 ORDER BY created_at DESC`, adminID)
	if err != nil {
		return nil, fmt.Errorf("list test codes: %w", err)
	}
	defer rows.Close()

	var defs []domain.TestDefinition
	for rows.Next() {
		var def domain.TestDefinition
		if err := rows.Scan(&def.Code, &def.Subject, &def.Topic, &def.Difficulty, &def.CreatedBy, &def.CreatedAt, &def.Active); err != nil {
			return nil, fmt.Errorf("scan test code: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (r *TestCodeRepository) Deactivate(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE test_codes SET active=FALSE WHERE code=$1`, code)
	if err != nil {
		return fmt.Errorf("deactivate test code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTestCodeNotFound
	}
	return nil
}
