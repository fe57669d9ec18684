package domain

import (
	"database/sql/driver"
	"fmt"
)

// JobStatus is the lifecycle status of a game awaiting or owning a bot.
type JobStatus string

const (
	StatusWaitingForBot      JobStatus = "WAITING_FOR_BOT"
	StatusCreationInProgress JobStatus = "CREATION_IN_PROGRESS"
	StatusWaitingForPlayers  JobStatus = "WAITING_FOR_PLAYERS"
	StatusGameInProgress     JobStatus = "GAME_IN_PROGRESS"
	StatusCompleted          JobStatus = "COMPLETED"
	StatusCancelled          JobStatus = "CANCELLED"
)

var statusOrder = map[JobStatus]int{
	StatusWaitingForBot:      0,
	StatusCreationInProgress: 1,
	StatusWaitingForPlayers:  2,
	StatusGameInProgress:     3,
	StatusCompleted:          4,
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	_, ok := statusOrder[s]
	return ok || s == StatusCancelled
}

// Terminal reports whether no further transition is allowed from s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a job may move from one status to another.
// Progress is strictly one step forward; cancellation is allowed from any
// non-terminal status once a bot has been assigned.
func CanTransition(from, to JobStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return from != StatusWaitingForBot
	}
	return statusOrder[to] == statusOrder[from]+1
}

// Scan implements sql.Scanner.
func (s *JobStatus) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported job status type %T", src)
	}
	status := JobStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("unknown job status %q", raw)
	}
	*s = status
	return nil
}

// Value implements driver.Valuer.
func (s JobStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown job status %q", string(s))
	}
	return string(s), nil
}

// Team identifies one of the two competing teams of a job.
type Team int

const (
	Team1 Team = 1
	Team2 Team = 2
)

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == Team1 {
		return Team2
	}
	return Team1
}

// Job is a game row awaiting or owning a lobby bot.
type Job struct {
	ID                int64
	Name              string
	Password          string
	Team1ID           int64
	Team2ID           int64
	Team1PlayerIDs    []int64
	Team2PlayerIDs    []int64
	TeamChoosingFirst Team
	Status            JobStatus
	AssignedBotLogin  *string
	ResultMatchID     *int64
	Winner            *Team
}

// TeamID returns the pro team id expected for t.
func (j *Job) TeamID(t Team) int64 {
	if t == Team1 {
		return j.Team1ID
	}
	return j.Team2ID
}

// Roster returns the expected player steam ids of t.
func (j *Job) Roster(t Team) []int64 {
	if t == Team1 {
		return j.Team1PlayerIDs
	}
	return j.Team2PlayerIDs
}

// TeamOf returns the team a steam id is rostered on.
func (j *Job) TeamOf(steamID int64) (Team, bool) {
	for _, id := range j.Team1PlayerIDs {
		if id == steamID {
			return Team1, true
		}
	}
	for _, id := range j.Team2PlayerIDs {
		if id == steamID {
			return Team2, true
		}
	}
	return 0, false
}

// Result is the final outcome recorded on a completed job.
type Result struct {
	MatchID int64
	Winner  *Team
}
