package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		allowed  bool
	}{
		{StatusWaitingForBot, StatusCreationInProgress, true},
		{StatusCreationInProgress, StatusWaitingForPlayers, true},
		{StatusWaitingForPlayers, StatusGameInProgress, true},
		{StatusGameInProgress, StatusCompleted, true},

		{StatusCreationInProgress, StatusCancelled, true},
		{StatusWaitingForPlayers, StatusCancelled, true},
		{StatusGameInProgress, StatusCancelled, true},
		{StatusWaitingForBot, StatusCancelled, false},

		{StatusWaitingForBot, StatusWaitingForPlayers, false},
		{StatusWaitingForPlayers, StatusCreationInProgress, false},
		{StatusGameInProgress, StatusGameInProgress, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusWaitingForBot, false},
		{JobStatus("PAUSED"), StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestJobStatus_Scan(t *testing.T) {
	var s JobStatus
	assert.NoError(t, s.Scan([]byte("GAME_IN_PROGRESS")))
	assert.Equal(t, StatusGameInProgress, s)

	assert.Error(t, s.Scan("RUNNING"))
	assert.Error(t, s.Scan(42))
}

func TestJob_TeamOf(t *testing.T) {
	job := Job{
		Team1ID:        100,
		Team2ID:        200,
		Team1PlayerIDs: []int64{1, 2},
		Team2PlayerIDs: []int64{3},
	}

	team, ok := job.TeamOf(2)
	assert.True(t, ok)
	assert.Equal(t, Team1, team)

	team, ok = job.TeamOf(3)
	assert.True(t, ok)
	assert.Equal(t, Team2, team)

	_, ok = job.TeamOf(4)
	assert.False(t, ok)

	assert.Equal(t, int64(200), job.TeamID(Team2))
	assert.Equal(t, []int64{3}, job.Roster(Team2))
	assert.Equal(t, Team1, Team2.Other())
}
