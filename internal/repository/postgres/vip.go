package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"inhouse-lobby-bot/internal/domain"
)

// VIPRepo implements repository.VIPRepository
type VIPRepo struct {
	db *sql.DB
}

// NewVIPRepo creates a new VIP repository
func NewVIPRepo(db *sql.DB) *VIPRepo {
	return &VIPRepo{db: db}
}

// ListVIPs returns every admin and caster
func (r *VIPRepo) ListVIPs(ctx context.Context) ([]domain.VIP, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT steam_id, role FROM vips`)
	if err != nil {
		return nil, fmt.Errorf("list vips: %w", err)
	}
	defer rows.Close()

	var vips []domain.VIP
	for rows.Next() {
		var v domain.VIP
		if err := rows.Scan(&v.SteamID, &v.Role); err != nil {
			return nil, err
		}
		vips = append(vips, v)
	}

	return vips, rows.Err()
}
