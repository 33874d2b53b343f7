package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"

	"github.com/duetml/duet/internal/core"
)

// VocabRepo tracks per-persona catchphrase weights. Sampling is weighted
// without replacement so frequent words surface more often but never crowd
// out the rest.
type VocabRepo struct {
	db *sql.DB
}

func NewVocabRepo(db *sql.DB) *VocabRepo {
	return &VocabRepo{db: db}
}

func (r *VocabRepo) SampleWeighted(ctx context.Context, persona string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	query := `SELECT word, weight FROM vocabulary WHERE persona = ?`
	rows, err := r.db.QueryContext(ctx, query, persona)
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary: %w", err)
	}
	defer rows.Close()

	var entries []core.VocabularyEntry
	for rows.Next() {
		var e core.VocabularyEntry
		if err := rows.Scan(&e.Word, &e.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary entry: %w", err)
		}
		if e.Weight < 1 {
			e.Weight = 1
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return drawWeighted(entries, n), nil
}

// drawWeighted picks up to n distinct words with probability proportional to
// weight. The live vocabulary stays small, so linear scans per draw are fine.
func drawWeighted(entries []core.VocabularyEntry, n int) []string {
	var words []string
	for len(words) < n && len(entries) > 0 {
		total := 0
		for _, e := range entries {
			total += e.Weight
		}
		pick := rand.Intn(total)
		for i, e := range entries {
			pick -= e.Weight
			if pick < 0 {
				words = append(words, e.Word)
				entries = append(entries[:i], entries[i+1:]...)
				break
			}
		}
	}
	return words
}

func (r *VocabRepo) ListWords(ctx context.Context, persona string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT word FROM vocabulary WHERE persona = ? ORDER BY word`, persona)
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (r *VocabRepo) IncrementUsage(ctx context.Context, persona string, words []string) error {
	if len(words) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO vocabulary (word, persona, weight) VALUES (?, ?, 1)
		ON CONFLICT(word, persona) DO UPDATE SET weight = weight + 1`
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, word, persona); err != nil {
			return fmt.Errorf("failed to bump vocabulary weight: %w", err)
		}
	}
	return tx.Commit()
}
