package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/repository"
)

// JobRepo implements repository.JobRepository on the games table.
type JobRepo struct {
	db *sql.DB
}

// NewJobRepo creates a new job repository
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{db: db}
}

// ListJobs returns games in the given status, oldest first
func (r *JobRepo) ListJobs(ctx context.Context, status domain.JobStatus) ([]domain.Job, error) {
	query := `
		SELECT id, name, password, team1_id, team2_id, team1_player_ids, team2_player_ids,
			team_choosing_first, status, assigned_bot_login, result_match_id, winner
		FROM games
		WHERE status = $1
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var (
			j         domain.Job
			team1     pq.Int64Array
			team2     pq.Int64Array
			first     int
			botLogin  sql.NullString
			matchID   sql.NullInt64
			winnerCol sql.NullInt64
		)
		if err := rows.Scan(
			&j.ID, &j.Name, &j.Password, &j.Team1ID, &j.Team2ID, &team1, &team2,
			&first, &j.Status, &botLogin, &matchID, &winnerCol,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Team1PlayerIDs = []int64(team1)
		j.Team2PlayerIDs = []int64(team2)
		j.TeamChoosingFirst = domain.Team(first)
		if botLogin.Valid {
			j.AssignedBotLogin = &botLogin.String
		}
		if matchID.Valid {
			j.ResultMatchID = &matchID.Int64
		}
		if winnerCol.Valid {
			w := domain.Team(winnerCol.Int64)
			j.Winner = &w
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// AssignBot moves a waiting game to CREATION_IN_PROGRESS and records the bot login
func (r *JobRepo) AssignBot(ctx context.Context, jobID int64, login string) error {
	query := `
		UPDATE games
		SET status = $1, assigned_bot_login = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query,
		domain.StatusCreationInProgress, login, jobID, domain.StatusWaitingForBot)
	if err != nil {
		return fmt.Errorf("assign bot to job %d: %w", jobID, err)
	}
	return expectOneRow(res, jobID)
}

// UpdateStatus performs a compare-and-set status transition
func (r *JobRepo) UpdateStatus(ctx context.Context, jobID int64, from, to domain.JobStatus) error {
	if !domain.CanTransition(from, to) {
		return fmt.Errorf("job %d %s -> %s: %w", jobID, from, to, repository.ErrStatusConflict)
	}
	query := `UPDATE games SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, jobID, from)
	if err != nil {
		return fmt.Errorf("update job %d status: %w", jobID, err)
	}
	return expectOneRow(res, jobID)
}

// Complete marks an in-progress game COMPLETED with its match id and winner
func (r *JobRepo) Complete(ctx context.Context, jobID int64, result domain.Result) error {
	var winner sql.NullInt64
	if result.Winner != nil {
		winner = sql.NullInt64{Int64: int64(*result.Winner), Valid: true}
	}
	query := `
		UPDATE games
		SET status = $1, result_match_id = $2, winner = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		domain.StatusCompleted, result.MatchID, winner, jobID, domain.StatusGameInProgress)
	if err != nil {
		return fmt.Errorf("complete job %d: %w", jobID, err)
	}
	return expectOneRow(res, jobID)
}

func expectOneRow(res sql.Result, jobID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("job %d: %w", jobID, repository.ErrStatusConflict)
	}
	return nil
}
