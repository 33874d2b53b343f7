package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duetml/duet/internal/core"
)

// StylesRepo is the learned visual-style palette. Keywords are stored as a
// JSON array in a text column.
type StylesRepo struct {
	db *sql.DB
}

func NewStylesRepo(db *sql.DB) *StylesRepo {
	return &StylesRepo{db: db}
}

func (r *StylesRepo) AddStyle(ctx context.Context, profile core.StyleProfile) (core.StyleProfile, error) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	keywordsJSON, err := json.Marshal(profile.Analysis.Keywords)
	if err != nil {
		return core.StyleProfile{}, fmt.Errorf("failed to marshal style keywords: %w", err)
	}

	query := `INSERT INTO style_profiles (id, source_prompt, source_image_ref, style_name, style_keywords, style_description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		profile.ID, profile.SourcePrompt, profile.SourceImageRef,
		profile.Analysis.Name, string(keywordsJSON), profile.Analysis.Description,
		profile.CreatedAt)
	if err != nil {
		return core.StyleProfile{}, fmt.Errorf("failed to insert style profile: %w", err)
	}
	return profile, nil
}

func (r *StylesRepo) ListStyles(ctx context.Context) ([]core.StyleProfile, error) {
	query := `SELECT id, source_prompt, source_image_ref, style_name, style_keywords, style_description, created_at
		FROM style_profiles ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query style profiles: %w", err)
	}
	defer rows.Close()

	var profiles []core.StyleProfile
	for rows.Next() {
		var p core.StyleProfile
		var keywordsStr sql.NullString
		if err := rows.Scan(&p.ID, &p.SourcePrompt, &p.SourceImageRef,
			&p.Analysis.Name, &keywordsStr, &p.Analysis.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan style profile: %w", err)
		}
		if keywordsStr.Valid && keywordsStr.String != "" {
			if err := json.Unmarshal([]byte(keywordsStr.String), &p.Analysis.Keywords); err != nil {
				return nil, fmt.Errorf("failed to unmarshal style keywords: %w", err)
			}
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
