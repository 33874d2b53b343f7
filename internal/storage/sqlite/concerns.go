package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duetml/duet/internal/core"
)

// ConcernsRepo is the append-only log of open worries the moderator spotted.
type ConcernsRepo struct {
	db *sql.DB
}

func NewConcernsRepo(db *sql.DB) *ConcernsRepo {
	return &ConcernsRepo{db: db}
}

func (r *ConcernsRepo) LogConcern(ctx context.Context, text string) (core.Concern, error) {
	concern := core.Concern{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO concerns (id, text, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, concern.ID, concern.Text, concern.CreatedAt); err != nil {
		return core.Concern{}, fmt.Errorf("failed to insert concern: %w", err)
	}
	return concern, nil
}

func (r *ConcernsRepo) ListUnresolved(ctx context.Context) ([]core.Concern, error) {
	query := `SELECT id, text, created_at FROM concerns WHERE resolved_at IS NULL ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query concerns: %w", err)
	}
	defer rows.Close()

	var concerns []core.Concern
	for rows.Next() {
		var c core.Concern
		if err := rows.Scan(&c.ID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan concern: %w", err)
		}
		concerns = append(concerns, c)
	}
	return concerns, rows.Err()
}

func (r *ConcernsRepo) Resolve(ctx context.Context, id string) error {
	query := `UPDATE concerns SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to resolve concern: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Either already resolved (no-op) or the id never existed.
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM concerns WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}
