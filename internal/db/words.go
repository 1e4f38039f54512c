package db

import (
	"context"
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"gitlab.com/arkline/modguard/internal/models"
)

func validateWordPattern(pattern string, isRegex bool) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty pattern", models.ErrInvalidFormat)
	}
	if isRegex {
		// The filter engine tolerates a stored pattern that no longer
		// compiles, but a new one is rejected at the door.
		if _, err := regexp.Compile("(?i)" + pattern); err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
		}
	}
	return nil
}

func (sdb *SharedDB) CreateBannedWord(ctx context.Context, word *models.BannedWord) error {
	if err := validateWordPattern(word.Pattern, word.IsRegex); err != nil {
		return err
	}
	if !word.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", models.ErrInvalidFormat, word.Severity)
	}

	sql, args, _ := psql.
		Insert("banned_words").
		Columns("pattern", "is_regex", "severity", "category", "replacement", "is_active", "created_by").
		Values(word.Pattern, word.IsRegex, word.Severity, word.Category, word.Replacement, word.IsActive, word.CreatedBy).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	row := sdb.db.QueryRow(ctx, sql, args...)
	return row.Scan(&word.ID, &word.CreatedAt, &word.UpdatedAt)
}

func (sdb *SharedDB) UpdateBannedWord(ctx context.Context, wordID int, upd models.BannedWordUpdate) (*models.BannedWord, error) {
	current, err := sdb.GetBannedWord(ctx, wordID)
	if err != nil {
		return nil, err
	}

	builder := psql.Update("banned_words").Suffix("RETURNING *")
	pattern, isRegex := current.Pattern, current.IsRegex
	if upd.Pattern != nil {
		pattern = *upd.Pattern
		builder = builder.Set("pattern", *upd.Pattern)
	}
	if upd.IsRegex != nil {
		isRegex = *upd.IsRegex
		builder = builder.Set("is_regex", *upd.IsRegex)
	}
	if err := validateWordPattern(pattern, isRegex); err != nil {
		return nil, err
	}
	if upd.Severity != nil {
		if !upd.Severity.Valid() {
			return nil, fmt.Errorf("%w: unknown severity %q", models.ErrInvalidFormat, *upd.Severity)
		}
		builder = builder.Set("severity", *upd.Severity)
	}
	if upd.Category != nil {
		builder = builder.Set("category", *upd.Category)
	}
	if upd.Replacement != nil {
		builder = builder.Set("replacement", *upd.Replacement)
	}
	if upd.IsActive != nil {
		builder = builder.Set("is_active", *upd.IsActive)
	}

	sql, args, _ := builder.
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": wordID}).
		ToSql()

	word := &models.BannedWord{}
	err = pgxscan.Get(ctx, sdb.db, word, sql, args...)
	if pgxscan.NotFound(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return word, nil
}

func (sdb *SharedDB) DeleteBannedWord(ctx context.Context, wordID int) error {
	sql, args, _ := psql.
		Delete("banned_words").
		Where(sq.Eq{"id": wordID}).
		ToSql()

	tag, err := sdb.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (sdb *SharedDB) GetBannedWord(ctx context.Context, wordID int) (*models.BannedWord, error) {
	sql, args, _ := psql.
		Select("*").
		From("banned_words").
		Where(sq.Eq{"id": wordID}).
		ToSql()

	word := &models.BannedWord{}
	err := pgxscan.Get(ctx, sdb.db, word, sql, args...)
	if pgxscan.NotFound(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return word, nil
}

func (sdb *SharedDB) ListBannedWords(ctx context.Context) ([]models.BannedWord, error) {
	sql, args, _ := psql.
		Select("*").
		From("banned_words").
		OrderBy("id").
		ToSql()

	words := []models.BannedWord{}
	err := pgxscan.Select(ctx, sdb.db, &words, sql, args...)
	if err != nil {
		return nil, err
	}
	return words, nil
}

// ListActiveBannedWords feeds the filter engine, in insertion order.
func (sdb *SharedDB) ListActiveBannedWords(ctx context.Context) ([]models.BannedWord, error) {
	sql, args, _ := psql.
		Select("*").
		From("banned_words").
		Where(sq.Eq{"is_active": true}).
		OrderBy("id").
		ToSql()

	words := []models.BannedWord{}
	err := pgxscan.Select(ctx, sdb.db, &words, sql, args...)
	if err != nil {
		return nil, err
	}
	return words, nil
}
