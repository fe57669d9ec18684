package testutil

import (
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"inhouse-lobby-bot/internal/domain"
)

// NewTestLogger creates a logger that discards output
func NewTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

// NewTestJob creates a queued job with one rostered player per team
func NewTestJob(id int64) domain.Job {
	return domain.Job{
		ID:                id,
		Name:              "inhouse-test",
		Password:          "secret",
		Team1PlayerIDs:    []int64{Team1Player},
		Team2PlayerIDs:    []int64{Team2Player},
		TeamChoosingFirst: domain.Team1,
		Status:            domain.StatusWaitingForBot,
	}
}

// NewTestJob5v5 creates a queued job with five rostered players per team
// and pro team ids Team1ProID and Team2ProID
func NewTestJob5v5(id int64) domain.Job {
	job := NewTestJob(id)
	job.Team1PlayerIDs = TeamRoster(Team1Player)
	job.Team2PlayerIDs = TeamRoster(Team2Player)
	job.Team1ID = Team1ProID
	job.Team2ID = Team2ProID
	return job
}

// TeamRoster returns five consecutive steam ids starting at first
func TeamRoster(first int64) []int64 {
	roster := make([]int64, 5)
	for i := range roster {
		roster[i] = first + int64(i)
	}
	return roster
}

// NewTestCredentials creates one credential per login
func NewTestCredentials(logins ...string) []domain.Credential {
	creds := make([]domain.Credential, len(logins))
	for i, login := range logins {
		creds[i] = domain.Credential{Login: login, Password: login + "-pw"}
	}
	return creds
}

// Steam ids used by NewTestJob and FakeClient
const (
	BotSteamID  uint64 = 76561198000000001
	Team1Player int64  = 76561198000000101
	Team2Player int64  = 76561198000000201
	Stranger    int64  = 76561198000000999

	Team1ProID int64 = 1001
	Team2ProID int64 = 2002
)
