package repository

import (
	"context"
	"errors"

	"inhouse-lobby-bot/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict is returned when a compare-and-set status write loses.
	ErrStatusConflict = errors.New("job status conflict")
)

// JobRepository is the job queue store.
type JobRepository interface {
	ListJobs(ctx context.Context, status domain.JobStatus) ([]domain.Job, error)
	AssignBot(ctx context.Context, jobID int64, login string) error
	JobUpdater
}

// JobUpdater is the part of the job store a running bot session writes to.
type JobUpdater interface {
	UpdateStatus(ctx context.Context, jobID int64, from, to domain.JobStatus) error
	Complete(ctx context.Context, jobID int64, result domain.Result) error
}

// VIPRepository lists privileged lobby observers.
type VIPRepository interface {
	ListVIPs(ctx context.Context) ([]domain.VIP, error)
}

// FlagRepository reads dynamic configuration flags.
type FlagRepository interface {
	GetFlag(ctx context.Context, name, defaultValue string) (string, error)
}
