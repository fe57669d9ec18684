package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inhouse-lobby-bot/internal/domain"
)

func TestVIPRepo_ListVIPs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT steam_id, role FROM vips").
		WillReturnRows(sqlmock.NewRows([]string{"steam_id", "role"}).
			AddRow(int64(76561198000000001), "ADMIN").
			AddRow(int64(76561198000000002), "CASTER"))

	vips, err := NewVIPRepo(db).ListVIPs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.VIP{
		{SteamID: 76561198000000001, Role: domain.RoleAdmin},
		{SteamID: 76561198000000002, Role: domain.RoleCaster},
	}, vips)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlagRepo_GetFlag(t *testing.T) {
	tests := []struct {
		name      string
		rows      *sqlmock.Rows
		mockError error
		expected  string
		expectErr bool
	}{
		{
			name:     "flag set",
			rows:     sqlmock.NewRows([]string{"value"}).AddRow("true"),
			expected: "true",
		},
		{
			name:      "flag unset",
			mockError: sql.ErrNoRows,
			expected:  "false",
		},
		{
			name:      "query fails",
			mockError: errors.New("connection reset"),
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			query := mock.ExpectQuery("SELECT value FROM dynamic_config WHERE name = \\$1").
				WithArgs("bot_dispatch_paused")
			if tt.mockError != nil {
				query.WillReturnError(tt.mockError)
			} else {
				query.WillReturnRows(tt.rows)
			}

			value, err := NewFlagRepo(db).GetFlag(context.Background(), "bot_dispatch_paused", "false")
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, value)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
