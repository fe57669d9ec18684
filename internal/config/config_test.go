package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"LOBBYBOT_CREDENTIALS":       "bot1 pw1 bot2 pw2",
		"LOBBYBOT_DATABASE_PASSWORD": "secret",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, uint32(3), cfg.Lobby.ServerRegion)
	assert.Equal(t, 30*time.Minute, cfg.Timings.TotalBudget)
	assert.Equal(t, 5*time.Minute, cfg.Timings.ReadyReserve)
	assert.Equal(t, 3, cfg.Timings.LaunchAttempts)
	assert.Equal(t, 30*time.Second, cfg.Timings.OutcomeGrace)

	creds, err := cfg.ParsedCredentials()
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "bot2", creds[1].Login)
	assert.Equal(t, "pw2", creds[1].Password)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"LOBBYBOT_CREDENTIALS":                  "bot1 pw1",
		"LOBBYBOT_DATABASE_PASSWORD":            "secret",
		"LOBBYBOT_DATABASE_HOST":                "db",
		"LOBBYBOT_POLL_INTERVAL":                "15s",
		"LOBBYBOT_TIMINGS_PICK_WINDOW":          "90s",
		"LOBBYBOT_TIMINGS_CONNECT_MAX_ATTEMPTS": "5",
		"LOBBYBOT_LOBBY_GAME_MODE":              "22",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.Timings.PickWindow)
	assert.Equal(t, 5, cfg.Timings.ConnectMaxAttempts)
	assert.Equal(t, uint32(22), cfg.Lobby.GameMode)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing credentials",
			env:  map[string]string{"LOBBYBOT_DATABASE_PASSWORD": "secret"},
		},
		{
			name: "odd credential tokens",
			env: map[string]string{
				"LOBBYBOT_CREDENTIALS":       "bot1 pw1 bot2",
				"LOBBYBOT_DATABASE_PASSWORD": "secret",
			},
		},
		{
			name: "reserve exceeds budget",
			env: map[string]string{
				"LOBBYBOT_CREDENTIALS":           "bot1 pw1",
				"LOBBYBOT_DATABASE_PASSWORD":     "secret",
				"LOBBYBOT_TIMINGS_TOTAL_BUDGET":  "5m",
				"LOBBYBOT_TIMINGS_READY_RESERVE": "5m",
			},
		},
		{
			name: "no launch attempts",
			env: map[string]string{
				"LOBBYBOT_CREDENTIALS":             "bot1 pw1",
				"LOBBYBOT_DATABASE_PASSWORD":       "secret",
				"LOBBYBOT_TIMINGS_LAUNCH_ATTEMPTS": "0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "lobbybot",
			Password: "secret",
			Name:     "lobbybot",
			SSLMode:  "disable",
		},
	}

	assert.Equal(t,
		"host=localhost port=5432 user=lobbybot password=secret dbname=lobbybot sslmode=disable",
		cfg.DSN())
}
