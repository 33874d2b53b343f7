package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ExamplesRepo serves canned example exchanges for few-shot flavor in the
// turn prompt.
type ExamplesRepo struct {
	db *sql.DB
}

func NewExamplesRepo(db *sql.DB) *ExamplesRepo {
	return &ExamplesRepo{db: db}
}

func (r *ExamplesRepo) AddExample(ctx context.Context, content string) error {
	query := `INSERT INTO dialogue_examples (content) VALUES (?)`
	if _, err := r.db.ExecContext(ctx, query, content); err != nil {
		return fmt.Errorf("failed to insert dialogue example: %w", err)
	}
	return nil
}

func (r *ExamplesRepo) RandomExample(ctx context.Context) (string, error) {
	query := `SELECT content FROM dialogue_examples ORDER BY RANDOM() LIMIT 1`

	var content string
	err := r.db.QueryRowContext(ctx, query).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		// No examples stored is fine, the prompt just goes without one.
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query dialogue example: %w", err)
	}
	return content, nil
}
