package worker

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/metrics"
	"inhouse-lobby-bot/internal/repository"
	"inhouse-lobby-bot/internal/session"
)

// PauseFlag is the dynamic flag that halts dispatching of new sessions.
const PauseFlag = "bot_dispatch_paused"

var errNoCredential = errors.New("no bot credential available")

// Runner is a started bot session.
type Runner interface {
	Run(ctx context.Context)
	State() session.State
}

// Factory builds the session for an assigned job. The session must call
// reporter.ReportSessionEnded exactly once when it is done.
type Factory func(job domain.Job, cred domain.Credential, vips domain.VIPSet, reporter session.EndReporter) Runner

// SessionInfo describes one running session.
type SessionInfo struct {
	JobID     int64     `json:"job_id"`
	JobName   string    `json:"job_name"`
	BotLogin  string    `json:"bot_login"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Status summarizes the manager for operators.
type Status struct {
	Paused               bool `json:"paused"`
	ActiveSessions       int  `json:"active_sessions"`
	AvailableCredentials int  `json:"available_credentials"`
}

type activeSession struct {
	job       domain.Job
	cred      domain.Credential
	runner    Runner
	cancel    context.CancelFunc
	startedAt time.Time
}

// Manager polls the job queue and hands queued jobs to bot sessions, one
// credential per session.
type Manager struct {
	jobs         repository.JobRepository
	vips         repository.VIPRepository
	flags        repository.FlagRepository
	newSession   Factory
	pollInterval time.Duration
	logger       logrus.FieldLogger
	rand         *rand.Rand

	mu        sync.Mutex
	available []domain.Credential
	active    map[int64]*activeSession
	paused    bool
	wg        sync.WaitGroup
}

// NewManager creates a manager owning creds.
func NewManager(
	jobs repository.JobRepository,
	vips repository.VIPRepository,
	flags repository.FlagRepository,
	creds []domain.Credential,
	factory Factory,
	pollInterval time.Duration,
	logger logrus.FieldLogger,
) *Manager {
	return &Manager{
		jobs:         jobs,
		vips:         vips,
		flags:        flags,
		newSession:   factory,
		pollInterval: pollInterval,
		logger:       logger,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
		available:    append([]domain.Credential(nil), creds...),
		active:       make(map[int64]*activeSession),
	}
}

// Start polls until ctx is cancelled, then waits for running sessions to
// tear down. Sessions run under contexts derived from ctx.
func (m *Manager) Start(ctx context.Context) {
	m.logger.WithFields(logrus.Fields{
		"credentials":   len(m.available),
		"poll_interval": m.pollInterval,
	}).Info("Worker manager started")

	m.poll(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Worker manager stopping, waiting for sessions to finish")
			m.wg.Wait()
			m.logger.Info("Worker manager stopped")
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Manager) poll(ctx context.Context) {
	vipList, err := m.vips.ListVIPs(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Failed to list VIPs, skipping poll cycle")
		return
	}
	vips := domain.SplitVIPs(vipList)

	paused, err := m.dispatchPaused(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Failed to read dispatch flag, skipping poll cycle")
		return
	}

	jobs, err := m.jobs.ListJobs(ctx, domain.StatusWaitingForBot)
	if err != nil {
		m.logger.WithError(err).Error("Failed to list queued jobs, skipping poll cycle")
		return
	}
	if len(jobs) == 0 {
		return
	}

	if paused {
		metrics.DispatchDeferred.WithLabelValues("paused").Inc()
		m.logger.WithField("queued", len(jobs)).Info("Dispatch paused, jobs left waiting")
		return
	}

	for i, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		err := m.dispatch(ctx, job, vips)
		switch {
		case err == nil:
		case errors.Is(err, errNoCredential):
			metrics.DispatchDeferred.WithLabelValues("no_credentials").Inc()
			m.logger.WithField("queued", len(jobs)-i).Info("No bot credential available, jobs left waiting")
			return
		default:
			// Later jobs must not overtake this one.
			metrics.DispatchDeferred.WithLabelValues("store_error").Inc()
			m.logger.WithError(err).WithField("job_id", job.ID).Error("Failed to assign bot, ending poll cycle")
			return
		}
	}
}

func (m *Manager) dispatchPaused(ctx context.Context) (bool, error) {
	value, err := m.flags.GetFlag(ctx, PauseFlag, "false")
	if err != nil {
		return false, err
	}
	paused, err := strconv.ParseBool(value)
	if err != nil {
		m.logger.WithField("value", value).Warn("Invalid dispatch flag value, treating as not paused")
		paused = false
	}

	m.mu.Lock()
	m.paused = paused
	m.mu.Unlock()
	return paused, nil
}

// dispatch hands job to a random free credential. It returns errNoCredential
// when the pool is empty. A job another writer already took is skipped with
// a nil error; any other store failure is returned.
func (m *Manager) dispatch(ctx context.Context, job domain.Job, vips domain.VIPSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.available) == 0 {
		return errNoCredential
	}

	i := m.rand.Intn(len(m.available))
	cred := m.available[i]
	m.available = append(m.available[:i], m.available[i+1:]...)

	logger := m.logger.WithFields(logrus.Fields{"job_id": job.ID, "bot": cred.Login})
	if err := m.jobs.AssignBot(ctx, job.ID, cred.Login); err != nil {
		m.available = append(m.available, cred)
		if errors.Is(err, repository.ErrStatusConflict) {
			logger.WithError(err).Warn("Job was taken by another writer, skipping")
			return nil
		}
		return err
	}

	login := cred.Login
	job.Status = domain.StatusCreationInProgress
	job.AssignedBotLogin = &login

	runner := m.newSession(job, cred, vips, m)
	sessionCtx, cancel := context.WithCancel(ctx)
	m.active[job.ID] = &activeSession{
		job:       job,
		cred:      cred,
		runner:    runner,
		cancel:    cancel,
		startedAt: time.Now(),
	}
	metrics.SessionsStarted.Inc()
	metrics.ActiveSessions.Inc()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		runner.Run(sessionCtx)
	}()

	logger.Info("Bot session dispatched")
	return nil
}

// ReportSessionEnded returns cred to the pool and forgets the session of
// jobID. Returning a credential that is already available is a no-op.
func (m *Manager) ReportSessionEnded(jobID int64, cred domain.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[jobID]; ok {
		delete(m.active, jobID)
		metrics.ActiveSessions.Dec()
	}

	for _, c := range m.available {
		if c.Login == cred.Login {
			return
		}
	}
	m.available = append(m.available, cred)
	m.logger.WithFields(logrus.Fields{"job_id": jobID, "bot": cred.Login}).Info("Bot credential returned")
}

// Abort cancels the session running jobID. It reports whether one was found.
func (m *Manager) Abort(jobID int64) bool {
	m.mu.Lock()
	a, ok := m.active[jobID]
	m.mu.Unlock()
	if !ok {
		return false
	}

	m.logger.WithFields(logrus.Fields{"job_id": jobID, "bot": a.cred.Login}).Warn("Aborting bot session")
	a.cancel()
	return true
}

// Sessions returns the running sessions ordered by job id.
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(m.active))
	for _, a := range m.active {
		infos = append(infos, SessionInfo{
			JobID:     a.job.ID,
			JobName:   a.job.Name,
			BotLogin:  a.cred.Login,
			State:     a.runner.State().String(),
			StartedAt: a.startedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].JobID < infos[j].JobID })
	return infos
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Paused:               m.paused,
		ActiveSessions:       len(m.active),
		AvailableCredentials: len(m.available),
	}
}
