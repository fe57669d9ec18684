package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/repository"
)

var jobColumns = []string{
	"id", "name", "password", "team1_id", "team2_id", "team1_player_ids", "team2_player_ids",
	"team_choosing_first", "status", "assigned_bot_login", "result_match_id", "winner",
}

func TestJobRepo_ListJobs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepo(db)

	rows := sqlmock.NewRows(jobColumns).
		AddRow(3, "finals", "pw", 100, 200, "{11,12}", "{21,22}", 2, "WAITING_FOR_BOT", nil, nil, nil).
		AddRow(4, "semis", "", 0, 0, "{}", "{31}", 1, "WAITING_FOR_BOT", "bot1", 555, 1)
	mock.ExpectQuery("SELECT id, name, password.* FROM games WHERE status = \\$1 ORDER BY id ASC").
		WithArgs("WAITING_FOR_BOT").
		WillReturnRows(rows)

	jobs, err := repo.ListJobs(context.Background(), domain.StatusWaitingForBot)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	first := jobs[0]
	assert.Equal(t, int64(3), first.ID)
	assert.Equal(t, []int64{11, 12}, first.Team1PlayerIDs)
	assert.Equal(t, []int64{21, 22}, first.Team2PlayerIDs)
	assert.Equal(t, domain.Team2, first.TeamChoosingFirst)
	assert.Equal(t, domain.StatusWaitingForBot, first.Status)
	assert.Nil(t, first.AssignedBotLogin)
	assert.Nil(t, first.Winner)

	second := jobs[1]
	assert.Empty(t, second.Team1PlayerIDs)
	require.NotNil(t, second.AssignedBotLogin)
	assert.Equal(t, "bot1", *second.AssignedBotLogin)
	require.NotNil(t, second.ResultMatchID)
	assert.Equal(t, int64(555), *second.ResultMatchID)
	require.NotNil(t, second.Winner)
	assert.Equal(t, domain.Team1, *second.Winner)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_ListJobs_UnknownStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(jobColumns).
		AddRow(3, "finals", "pw", 0, 0, "{}", "{}", 1, "PAUSED", nil, nil, nil)
	mock.ExpectQuery("SELECT id").WillReturnRows(rows)

	_, err = NewJobRepo(db).ListJobs(context.Background(), domain.StatusWaitingForBot)
	assert.Error(t, err)
}

func TestJobRepo_AssignBot(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "assigned", affected: 1},
		{name: "already taken", affected: 0, wantErr: repository.ErrStatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec("UPDATE games SET status = \\$1, assigned_bot_login = \\$2 WHERE id = \\$3 AND status = \\$4").
				WithArgs("CREATION_IN_PROGRESS", "bot1", int64(7), "WAITING_FOR_BOT").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err = NewJobRepo(db).AssignBot(context.Background(), 7, "bot1")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobRepo_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepo(db)

	mock.ExpectExec("UPDATE games SET status = \\$1 WHERE id = \\$2 AND status = \\$3").
		WithArgs("WAITING_FOR_PLAYERS", int64(7), "CREATION_IN_PROGRESS").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateStatus(context.Background(), 7, domain.StatusCreationInProgress, domain.StatusWaitingForPlayers)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_UpdateStatus_RejectsIllegalTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepo(db)

	err = repo.UpdateStatus(context.Background(), 7, domain.StatusGameInProgress, domain.StatusWaitingForPlayers)
	assert.True(t, errors.Is(err, repository.ErrStatusConflict))

	err = repo.UpdateStatus(context.Background(), 7, domain.StatusCancelled, domain.StatusCompleted)
	assert.True(t, errors.Is(err, repository.ErrStatusConflict))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_Complete(t *testing.T) {
	winner := domain.Team2

	tests := []struct {
		name   string
		result domain.Result
		winner interface{}
	}{
		{name: "with winner", result: domain.Result{MatchID: 9001, Winner: &winner}, winner: int64(2)},
		{name: "without winner", result: domain.Result{MatchID: 9002}, winner: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec("UPDATE games SET status = \\$1, result_match_id = \\$2, winner = \\$3 WHERE id = \\$4 AND status = \\$5").
				WithArgs("COMPLETED", tt.result.MatchID, tt.winner, int64(7), "GAME_IN_PROGRESS").
				WillReturnResult(sqlmock.NewResult(0, 1))

			err = NewJobRepo(db).Complete(context.Background(), 7, tt.result)
			assert.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
