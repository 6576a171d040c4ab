package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FlagRepository stores boolean settings in the dynamic_properties table.
// It implements settings.Storage.
type FlagRepository struct {
	db *pgxpool.Pool
}

// NewFlagRepository creates a new FlagRepository.
func NewFlagRepository(db *pgxpool.Pool) *FlagRepository {
	return &FlagRepository{db: db}
}

// LoadFlag returns the stored value for key; ok is false when it is absent.
func (r *FlagRepository) LoadFlag(ctx context.Context, key string) (bool, bool, error) {
	var value bool
	err := r.db.QueryRow(ctx,
		`SELECT value FROM dynamic_properties WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("querying flag %q: %w", key, err)
	}
	return value, true, nil
}

// SaveFlag upserts a value.
func (r *FlagRepository) SaveFlag(ctx context.Context, key string, value bool) error {
	query := `
		INSERT INTO dynamic_properties (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("saving flag %q: %w", key, err)
	}
	slog.Debug("saved flag", "key", key, "value", value)
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (r *FlagRepository) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete with empty prefix")
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM dynamic_properties WHERE key LIKE $1 ESCAPE '\'`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return 0, fmt.Errorf("deleting flags with prefix %q: %w", prefix, err)
	}
	return tag.RowsAffected(), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
