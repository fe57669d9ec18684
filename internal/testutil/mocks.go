package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"inhouse-lobby-bot/internal/domain"
)

// MockJobRepository is a mock for JobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) ListJobs(ctx context.Context, status domain.JobStatus) ([]domain.Job, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Job), args.Error(1)
}

func (m *MockJobRepository) AssignBot(ctx context.Context, jobID int64, login string) error {
	args := m.Called(ctx, jobID, login)
	return args.Error(0)
}

func (m *MockJobRepository) UpdateStatus(ctx context.Context, jobID int64, from, to domain.JobStatus) error {
	args := m.Called(ctx, jobID, from, to)
	return args.Error(0)
}

func (m *MockJobRepository) Complete(ctx context.Context, jobID int64, result domain.Result) error {
	args := m.Called(ctx, jobID, result)
	return args.Error(0)
}

// MockVIPRepository is a mock for VIPRepository
type MockVIPRepository struct {
	mock.Mock
}

func (m *MockVIPRepository) ListVIPs(ctx context.Context) ([]domain.VIP, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VIP), args.Error(1)
}

// MockFlagRepository is a mock for FlagRepository
type MockFlagRepository struct {
	mock.Mock
}

func (m *MockFlagRepository) GetFlag(ctx context.Context, name, defaultValue string) (string, error) {
	args := m.Called(ctx, name, defaultValue)
	return args.String(0), args.Error(1)
}
