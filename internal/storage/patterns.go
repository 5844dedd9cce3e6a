package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

const patternColumns = `id, category_id, pattern, match_type, priority, created_at`

// GetPatterns returns all patterns, exact ones first, then by priority.
func (s *queries) GetPatterns(ctx context.Context) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryPatterns(ctx, `
		SELECT `+patternColumns+` FROM item_category_patterns
		ORDER BY CASE match_type WHEN 'exact' THEN 0 ELSE 1 END, priority DESC, id ASC
	`)
}

// GetPatternsByKind returns the patterns of one match kind ordered by priority.
func (s *queries) GetPatternsByKind(ctx context.Context, kind model.MatchKind) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(string(kind), "kind"); err != nil {
		return nil, err
	}
	return s.queryPatterns(ctx, `
		SELECT `+patternColumns+` FROM item_category_patterns
		WHERE match_type = ?
		ORDER BY priority DESC, id ASC
	`, string(kind))
}

// GetPatternsByCategory returns the patterns that map to category.
func (s *queries) GetPatternsByCategory(ctx context.Context, category model.Category) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	return s.queryPatterns(ctx, `
		SELECT `+patternColumns+` FROM item_category_patterns
		WHERE category_id = ?
		ORDER BY pattern COLLATE NOCASE, match_type
	`, category.ID())
}

// SavePattern stores p. If the same text and match kind already belong to
// p's category the existing row is reused; if they belong to another
// category that row is removed first.
func (s *queries) SavePattern(ctx context.Context, p *model.Pattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(p); err != nil {
		return err
	}
	if p.Priority == 0 {
		p.Priority = 1
	}

	return s.atomic(ctx, func(q queryable) error {
		existing, err := scanPattern(q.QueryRowContext(ctx, `
			SELECT `+patternColumns+` FROM item_category_patterns
			WHERE pattern_key = ? AND match_type = ?
		`, p.Key(), string(p.MatchKind)))
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		case existing.Category == p.Category:
			*p = *existing
			return nil
		default:
			if _, err := q.ExecContext(ctx, `DELETE FROM item_category_patterns WHERE id = ?`, existing.ID); err != nil {
				return fmt.Errorf("failed to delete conflicting pattern: %w", err)
			}
			slog.Info("Replaced conflicting pattern",
				"pattern", existing.Text,
				"match_type", string(existing.MatchKind),
				"old_category", existing.Category.String(),
				"new_category", p.Category.String())
		}

		now := time.Now().UTC()
		result, err := q.ExecContext(ctx, `
			INSERT INTO item_category_patterns (category_id, pattern, pattern_key, match_type, priority, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.Category.ID(), p.Text, p.Key(), string(p.MatchKind), p.Priority, now)
		if err != nil {
			return fmt.Errorf("failed to insert pattern: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get pattern id: %w", err)
		}
		p.ID = id
		p.CreatedAt = now
		return nil
	})
}

// DeletePattern removes a pattern by id.
func (s *queries) DeletePattern(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM item_category_patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}
	return requireAffected(result, fmt.Sprintf("pattern %d", id))
}

func (s *queries) queryPatterns(ctx context.Context, query string, args ...any) ([]model.Pattern, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *p)
	}
	return patterns, rows.Err()
}

func scanPattern(row rowScanner) (*model.Pattern, error) {
	var (
		p          model.Pattern
		categoryID int
		kind       string
	)
	if err := row.Scan(&p.ID, &categoryID, &p.Text, &kind, &p.Priority, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pattern: %w", err)
	}

	category, err := model.CategoryFromID(categoryID)
	if err != nil {
		return nil, fmt.Errorf("pattern %d: %w", p.ID, err)
	}
	p.Category = category
	p.MatchKind = model.MatchKind(kind)
	return &p, nil
}
