package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/duetml/duet/internal/core"
)

// StateRepo holds the single conversation state record. The table is pinned
// to one row; SetState replaces it wholesale.
type StateRepo struct {
	db *sql.DB
}

func NewStateRepo(db *sql.DB) *StateRepo {
	return &StateRepo{db: db}
}

func (r *StateRepo) GetState(ctx context.Context) (core.ConversationState, error) {
	query := `SELECT mood_a, mood_b, summary, updated_at FROM conversation_state WHERE id = 1`

	var state core.ConversationState
	err := r.db.QueryRowContext(ctx, query).Scan(&state.MoodA, &state.MoodB, &state.Summary, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// First run, nothing stored yet.
		return core.DefaultState(), nil
	}
	if err != nil {
		return core.ConversationState{}, fmt.Errorf("failed to query conversation state: %w", err)
	}
	return state, nil
}

func (r *StateRepo) SetState(ctx context.Context, state core.ConversationState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	query := `INSERT INTO conversation_state (id, mood_a, mood_b, summary, updated_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET mood_a = excluded.mood_a, mood_b = excluded.mood_b,
		summary = excluded.summary, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, state.MoodA, state.MoodB, state.Summary, state.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert conversation state: %w", err)
	}
	return nil
}
