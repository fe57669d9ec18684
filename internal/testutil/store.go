package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/repository"
)

// MemoryJobStore is an in-memory JobRepository with the same compare-and-set
// rules as the postgres store.
type MemoryJobStore struct {
	mu      sync.Mutex
	jobs    map[int64]domain.Job
	history map[int64][]domain.JobStatus
}

// NewMemoryJobStore seeds a store with jobs.
func NewMemoryJobStore(jobs ...domain.Job) *MemoryJobStore {
	s := &MemoryJobStore{
		jobs:    make(map[int64]domain.Job),
		history: make(map[int64][]domain.JobStatus),
	}
	for _, j := range jobs {
		s.jobs[j.ID] = j
		s.history[j.ID] = []domain.JobStatus{j.Status}
	}
	return s
}

func (s *MemoryJobStore) ListJobs(_ context.Context, status domain.JobStatus) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Job
	for _, j := range s.jobs {
		if j.Status == status {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *MemoryJobStore) AssignBot(_ context.Context, jobID int64, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.casLocked(jobID, domain.StatusWaitingForBot, domain.StatusCreationInProgress)
	if err != nil {
		return err
	}
	j.AssignedBotLogin = &login
	s.jobs[jobID] = j
	return nil
}

func (s *MemoryJobStore) UpdateStatus(_ context.Context, jobID int64, from, to domain.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.casLocked(jobID, from, to)
	if err != nil {
		return err
	}
	s.jobs[jobID] = j
	return nil
}

func (s *MemoryJobStore) Complete(_ context.Context, jobID int64, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.casLocked(jobID, domain.StatusGameInProgress, domain.StatusCompleted)
	if err != nil {
		return err
	}
	matchID := result.MatchID
	j.ResultMatchID = &matchID
	j.Winner = result.Winner
	s.jobs[jobID] = j
	return nil
}

// Job returns the current row of jobID.
func (s *MemoryJobStore) Job(jobID int64) domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[jobID]
}

// Status returns the current status of jobID.
func (s *MemoryJobStore) Status(jobID int64) domain.JobStatus {
	return s.Job(jobID).Status
}

// History returns every status jobID went through, oldest first.
func (s *MemoryJobStore) History(jobID int64) []domain.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.JobStatus(nil), s.history[jobID]...)
}

func (s *MemoryJobStore) casLocked(jobID int64, from, to domain.JobStatus) (domain.Job, error) {
	j, ok := s.jobs[jobID]
	if !ok {
		return domain.Job{}, repository.ErrNotFound
	}
	if !domain.CanTransition(from, to) {
		return domain.Job{}, fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	if j.Status != from {
		return domain.Job{}, repository.ErrStatusConflict
	}
	j.Status = to
	s.history[jobID] = append(s.history[jobID], to)
	return j, nil
}
