package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// FlagRepo implements repository.FlagRepository on the dynamic_config table
type FlagRepo struct {
	db *sql.DB
}

// NewFlagRepo creates a new flag repository
func NewFlagRepo(db *sql.DB) *FlagRepo {
	return &FlagRepo{db: db}
}

// GetFlag returns the flag value, or defaultValue when the flag is unset
func (r *FlagRepo) GetFlag(ctx context.Context, name, defaultValue string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM dynamic_config WHERE name = $1`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultValue, nil
	}
	if err != nil {
		return "", fmt.Errorf("get flag %s: %w", name, err)
	}
	return value, nil
}
