package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/paralin/go-dota2/protocol"
	"github.com/sirupsen/logrus"

	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/gc"
	"inhouse-lobby-bot/internal/metrics"
	"inhouse-lobby-bot/internal/repository"
)

const (
	joinChatTimeout = 10 * time.Second
	teardownTimeout = 15 * time.Second
)

var (
	errShutdown = errors.New("shutdown requested from lobby chat")
	errExpired  = errors.New("deadline expired")
)

// cancelError ends a session as CANCELLED; reason is announced in chat.
type cancelError struct {
	reason string
}

func (e *cancelError) Error() string { return e.reason }

func cancelf(format string, args ...interface{}) error {
	return &cancelError{reason: fmt.Sprintf(format, args...)}
}

// expiredAs turns an expired deadline into a cancellation with reason.
func expiredAs(err error, reason string) error {
	if errors.Is(err, errExpired) {
		return &cancelError{reason: reason}
	}
	return err
}

// Timings holds the time budgets and retry policies of a session.
type Timings struct {
	TotalBudget        time.Duration
	ReadyReserve       time.Duration
	WaitTick           time.Duration
	PickWindow         time.Duration
	PickTick           time.Duration
	SettleDelay        time.Duration
	ConnectRetryDelay  time.Duration
	ConnectMaxAttempts int // 0 retries forever
	LaunchTimeout      time.Duration
	LaunchAttempts     int
	OutcomeGrace       time.Duration
}

// DefaultTimings returns the production budgets.
func DefaultTimings() Timings {
	return Timings{
		TotalBudget:       30 * time.Minute,
		ReadyReserve:      5 * time.Minute,
		WaitTick:          30 * time.Second,
		PickWindow:        60 * time.Second,
		PickTick:          1 * time.Second,
		SettleDelay:       5 * time.Second,
		ConnectRetryDelay: 10 * time.Second,
		LaunchTimeout:     2 * time.Minute,
		LaunchAttempts:    3,
		OutcomeGrace:      30 * time.Second,
	}
}

// EndReporter is notified once a session has torn down.
type EndReporter interface {
	ReportSessionEnded(jobID int64, cred domain.Credential)
}

// Params is the job snapshot a session is bound to.
type Params struct {
	Job          domain.Job
	Credential   domain.Credential
	VIPs         domain.VIPSet
	ServerRegion uint32
	GameMode     uint32
	Timings      Timings
}

// Deps are the collaborators of a session. Clock and Rand are optional.
type Deps struct {
	Client   gc.Client
	Jobs     repository.JobUpdater
	Reporter EndReporter
	Logger   logrus.FieldLogger
	Clock    Clock
	Rand     *rand.Rand
}

type pickTurn struct {
	team   domain.Team
	pool   choicePool
	choice Choice
}

// Session hosts one lobby from login to teardown. Everything except State
// runs on the goroutine calling Run.
type Session struct {
	params   Params
	job      *domain.Job
	timings  Timings
	client   gc.Client
	jobs     repository.JobUpdater
	reporter EndReporter
	clock    Clock
	rand     *rand.Rand
	logger   *logrus.Entry

	state     atomic.Int32
	jobStatus domain.JobStatus

	gcReady         bool
	reconnectC      <-chan time.Time
	connectAttempts int

	lobbyID   uint64
	lobby     gc.Lobby
	lobbyGone bool
	sides     sideAssignment
	moderator *moderator
	turn      *pickTurn

	// seated is the inversion the lobby seating reflects. It trails
	// sides.inverted until the GC echoes a requested flip.
	seated bool
}

// New creates a session for an assigned job.
func New(p Params, d Deps) *Session {
	s := &Session{
		params:    p,
		timings:   p.Timings,
		client:    d.Client,
		jobs:      d.Jobs,
		reporter:  d.Reporter,
		clock:     d.Clock,
		rand:      d.Rand,
		jobStatus: domain.StatusCreationInProgress,
		moderator: newModerator(),
	}
	s.job = &s.params.Job
	if s.clock == nil {
		s.clock = RealClock()
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.logger = d.Logger.WithFields(logrus.Fields{
		"job_id": p.Job.ID,
		"bot":    p.Credential.Login,
	})
	return s
}

// State returns the current lifecycle state. Safe for concurrent use.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	old := State(s.state.Swap(int32(state)))
	if old != state {
		s.logger.WithFields(logrus.Fields{"from": old, "to": state}).Info("Session state changed")
	}
}

// Run drives the lobby to completion or cancellation. Cancelling ctx aborts
// the session; the lobby is still torn down and the job marked CANCELLED.
func (s *Session) Run(ctx context.Context) {
	defer s.reporter.ReportSessionEnded(s.job.ID, s.params.Credential)
	defer s.client.Close()

	s.logger.Info("Bot session started")
	total := NewDeadline(s.clock, s.timings.TotalBudget)
	s.finish(s.drive(ctx, total))
}

func (s *Session) drive(ctx context.Context, total *Deadline) error {
	if err := s.connect(ctx, total); err != nil {
		return err
	}
	if err := s.host(ctx, total); err != nil {
		return err
	}

	s.setState(StateWaitingForPlayers)
	if err := s.waitForTeams(ctx, total.Shorten(s.timings.ReadyReserve)); err != nil {
		return expiredAs(err, "Not all players joined in time, the game is cancelled.")
	}

	s.setState(StatePickingSideOrder)
	if err := s.negotiateSides(ctx); err != nil {
		return err
	}

	s.setState(StateWaitingForReady)
	if err := s.waitForTeams(ctx, total); err != nil {
		return expiredAs(err, "Teams were not ready in time, the game is cancelled.")
	}

	if err := s.launch(ctx); err != nil {
		return err
	}
	return s.waitForGame(ctx)
}

func (s *Session) connect(ctx context.Context, total *Deadline) error {
	s.setState(StateStarting)
	s.client.Connect()
	if err := s.waitFor(ctx, total, 0, nil, func() bool { return s.gcReady }); err != nil {
		return expiredAs(err, "Could not reach the game coordinator.")
	}

	s.client.CreateLobby(s.lobbyConfig())
	s.setState(StateHostingGame)
	return nil
}

func (s *Session) host(ctx context.Context, total *Deadline) error {
	if err := s.waitFor(ctx, total, 0, nil, func() bool { return s.lobbyID != 0 }); err != nil {
		return expiredAs(err, "The lobby was never hosted.")
	}

	s.joinChat(ctx)
	s.client.ConfigureLobby(s.lobbyID, s.lobbyConfig())
	s.client.JoinTeam(protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_PLAYER_POOL, 1)

	settle := NewDeadline(s.clock, s.timings.SettleDelay)
	if err := s.waitFor(ctx, settle, 0, nil, func() bool { return false }); !errors.Is(err, errExpired) {
		return err
	}

	if err := s.transition(ctx, domain.StatusWaitingForPlayers); err != nil {
		return err
	}
	s.say(fmt.Sprintf("Lobby %q is up. Team 1 joins Radiant, Team 2 joins Dire.", s.job.Name))
	return nil
}

func (s *Session) joinChat(ctx context.Context) {
	joinCtx, cancel := context.WithTimeout(ctx, joinChatTimeout)
	defer cancel()
	if err := s.client.JoinChat(joinCtx, s.lobbyID); err != nil {
		s.logger.WithError(err).Warn("Could not join lobby chat")
	}
}

// waitForTeams re-checks the seating every wait tick until both teams are
// complete or the deadline passes.
func (s *Session) waitForTeams(ctx context.Context, deadline *Deadline) error {
	ready := false
	check := func() {
		report := checkTeams(s.lobby, s.job, s.sides.inverted)
		if report.Ready() {
			ready = true
			return
		}
		s.say(report.Status(deadline.Remaining()))
	}
	check()
	return s.waitFor(ctx, deadline, s.timings.WaitTick, check, func() bool { return ready })
}

func (s *Session) negotiateSides(ctx context.Context) error {
	pool := newChoicePool()
	choices := make(map[domain.Team]Choice, 2)

	team := s.job.TeamChoosingFirst
	if team != domain.Team1 && team != domain.Team2 {
		team = domain.Team1
	}

	for i := 0; i < 2; i++ {
		s.turn = &pickTurn{team: team, pool: pool}
		s.say(fmt.Sprintf("Team %d, choose one of %s (%d seconds).",
			team, pool, int(s.timings.PickWindow/time.Second)))

		window := NewDeadline(s.clock, s.timings.PickWindow)
		err := s.waitFor(ctx, window, s.timings.PickTick, nil, func() bool { return s.turn.choice != "" })
		choice := s.turn.choice
		switch {
		case err == nil:
			s.say(fmt.Sprintf("Team %d chose %s.", team, choice))
		case errors.Is(err, errExpired):
			choice = pool.random(s.rand)
			s.say(fmt.Sprintf("Team %d did not choose in time, random pick: %s.", team, choice))
		default:
			return err
		}

		s.logger.WithFields(logrus.Fields{"team": team, "choice": choice}).Info("Side/pick chosen")
		choices[team] = choice
		pool = pool.take(choice)
		team = team.Other()
	}
	s.turn = nil

	s.sides = resolveSides(choices)
	if s.sides.inverted {
		s.logger.Info("Flipping teams, moderation waits for the GC to confirm")
		s.client.FlipTeams()
		s.say("Teams flipped: Team 1 plays Dire, Team 2 plays Radiant.")
	}
	s.client.ConfigureLobby(s.lobbyID, s.lobbyConfig())

	firstPick := "Dire"
	if s.sides.cmPick == protocol.DOTA_CM_PICK_DOTA_CM_GOOD_GUYS {
		firstPick = "Radiant"
	}
	s.say(fmt.Sprintf("%s has first pick.", firstPick))
	return nil
}

func (s *Session) launch(ctx context.Context) error {
	s.setState(StateLoadingGame)
	s.say("All players are ready, launching the game.")

	for attempt := 1; attempt <= s.timings.LaunchAttempts; attempt++ {
		s.client.ConfigureLobby(s.lobbyID, s.lobbyConfig())
		s.client.LaunchLobby()

		timeout := NewDeadline(s.clock, s.timings.LaunchTimeout)
		err := s.waitFor(ctx, timeout, 0, nil, func() bool { return s.lobby.Launched() })
		if err == nil {
			if err := s.transition(ctx, domain.StatusGameInProgress); err != nil {
				return err
			}
			s.setState(StateGameInProgress)
			return nil
		}
		if !errors.Is(err, errExpired) {
			return err
		}

		metrics.LaunchRetries.WithLabelValues(s.params.Credential.Login).Inc()
		s.logger.WithField("attempt", attempt).Warn("Lobby did not launch in time")
	}

	return cancelf("The lobby failed to launch after %d attempts, the game is cancelled.", s.timings.LaunchAttempts)
}

// waitForGame returns once the lobby reaches POSTGAME. The outcome may trail
// the state change, so it waits up to OutcomeGrace for it before settling
// for a result without a winner.
func (s *Session) waitForGame(ctx context.Context) error {
	err := s.waitFor(ctx, nil, s.timings.WaitTick, nil, func() bool { return s.lobby.Finished() })
	if err != nil {
		return err
	}

	decided := func() bool {
		return s.lobbyGone || s.lobby.Outcome != protocol.EMatchOutcome_k_EMatchOutcome_Unknown
	}
	if decided() {
		return nil
	}
	grace := NewDeadline(s.clock, s.timings.OutcomeGrace)
	if err := s.waitFor(ctx, grace, 0, nil, decided); !errors.Is(err, errExpired) {
		return err
	}
	s.logger.Warn("Game ended without an outcome")
	return nil
}

// waitFor dispatches events until ready holds, the deadline passes, ctx is
// cancelled or an event handler fails. onTick runs every tick when tick > 0.
// A nil deadline never expires.
func (s *Session) waitFor(ctx context.Context, deadline *Deadline, tick time.Duration, onTick func(), ready func() bool) error {
	var tickC <-chan time.Time
	if tick > 0 {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		tickC = ticker.C
	}
	var expired <-chan time.Time
	if deadline != nil {
		expired = deadline.Done()
	}

	for {
		if ready() {
			return nil
		}
		if deadline != nil && deadline.Expired() {
			return errExpired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-expired:
			return errExpired
		case <-s.reconnectC:
			s.reconnectC = nil
			s.client.Connect()
		case ev := <-s.client.Events():
			if err := s.handle(ctx, ev); err != nil {
				return err
			}
		case <-tickC:
			if onTick != nil {
				onTick()
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, ev gc.Event) error {
	switch e := ev.(type) {
	case gc.Connected:
		s.client.Login(s.params.Credential)
	case gc.LoggedOn:
		s.connectAttempts = 0
		s.client.StartGC()
	case gc.LogOnFailed:
		s.logger.WithField("reason", e.Reason).Warn("Steam login failed")
		return s.scheduleReconnect()
	case gc.Disconnected:
		return s.scheduleReconnect()
	case gc.GCReady:
		if s.gcReady && s.lobbyID != 0 {
			s.joinChat(ctx)
		}
		s.gcReady = true
	case gc.LobbyChanged:
		s.onLobby(e.Lobby)
	case gc.LobbyRemoved:
		if s.lobbyID == 0 || e.LobbyID != s.lobbyID {
			break
		}
		if s.lobby.Finished() {
			s.lobbyGone = true
			s.logger.Info("Lobby closed after the game ended")
			break
		}
		return cancelf("The lobby was closed, the game is cancelled.")
	case gc.ChatMessage:
		return s.onChat(e)
	}
	return nil
}

func (s *Session) scheduleReconnect() error {
	if s.reconnectC != nil {
		return nil
	}
	s.connectAttempts++
	metrics.ConnectRetries.WithLabelValues(s.params.Credential.Login).Inc()

	if limit := s.timings.ConnectMaxAttempts; limit > 0 && s.connectAttempts > limit {
		return cancelf("Lost the connection to Steam after %d attempts, the game is cancelled.", limit)
	}

	s.logger.WithField("attempt", s.connectAttempts).Warn("Steam connection lost, reconnecting")
	s.reconnectC = s.clock.After(s.timings.ConnectRetryDelay)
	return nil
}

func (s *Session) onLobby(lobby gc.Lobby) {
	if s.lobbyID == 0 {
		if lobby.ID == 0 {
			return
		}
		s.lobbyID = lobby.ID
		s.logger.WithField("lobby_id", lobby.ID).Info("Lobby hosted")
	} else if lobby.ID != s.lobbyID {
		return
	}

	s.lobby = lobby
	if s.seated != s.sides.inverted && seatedAs(lobby, s.job, s.sides.inverted) {
		s.seated = s.sides.inverted
		s.logger.Info("Team flip confirmed by the GC")
	}
	if s.State() < StateGameFinished {
		s.moderate()
	}
}

func (s *Session) moderate() {
	kicks := s.moderator.review(s.lobby, s.job, s.params.VIPs, s.seated, s.client.SteamID())
	for _, k := range kicks {
		switch k.Kind {
		case kickFromLobby:
			s.client.KickMember(k.SteamID)
		case kickFromTeam:
			s.client.KickFromTeam(k.SteamID)
		}
		metrics.Kicks.WithLabelValues(string(k.Kind)).Inc()
		s.logger.WithFields(logrus.Fields{
			"steam_id": k.SteamID,
			"kind":     k.Kind,
			"team":     k.Team.String(),
		}).Info("Kicked lobby member")
	}
}

func (s *Session) transition(ctx context.Context, to domain.JobStatus) error {
	if err := s.jobs.UpdateStatus(ctx, s.job.ID, s.jobStatus, to); err != nil {
		return fmt.Errorf("job status %s -> %s: %w", s.jobStatus, to, err)
	}
	s.logger.WithFields(logrus.Fields{"from": s.jobStatus, "to": to}).Info("Job status changed")
	s.jobStatus = to
	return nil
}

func (s *Session) lobbyConfig() gc.LobbyConfig {
	return gc.LobbyConfig{
		Name:         s.job.Name,
		Password:     s.job.Password,
		ServerRegion: s.params.ServerRegion,
		GameMode:     s.params.GameMode,
		CMPick:       s.sides.cmPick,
	}
}

func (s *Session) say(message string) {
	s.client.SendChat(message)
}

// finish records the outcome and tears the lobby down. It runs with its
// own timeout so an aborted ctx still reaches the store.
func (s *Session) finish(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	outcome := "completed"
	switch {
	case err == nil:
		s.setState(StateGameFinished)
		s.recordResult(ctx)

	case errors.Is(err, errShutdown):
		outcome = "shutdown"
		s.logger.Warn("Shutdown requested from lobby chat")
		s.abandonJob(ctx)

	default:
		outcome = "cancelled"
		s.setState(StateCancelled)
		reason := "The game is cancelled."
		var ce *cancelError
		switch {
		case errors.As(err, &ce):
			reason = ce.reason
		case errors.Is(err, context.Canceled):
			reason = "The game was cancelled by an operator."
		}
		s.logger.WithError(err).Warn("Bot session cancelled")
		s.say(reason)
		s.abandonJob(ctx)
	}

	if s.lobbyID != 0 && !s.lobbyGone {
		if err := s.client.DestroyLobby(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to destroy lobby")
		}
	}

	s.setState(StateFinished)
	metrics.SessionsFinished.WithLabelValues(outcome).Inc()
	s.logger.WithField("outcome", outcome).Info("Bot session finished")
}

func (s *Session) recordResult(ctx context.Context) {
	result := domain.Result{
		MatchID: int64(s.lobby.MatchID),
		Winner:  Winner(s.lobby.Outcome, s.sides.inverted),
	}

	fields := logrus.Fields{"match_id": result.MatchID, "outcome": s.lobby.Outcome.String()}
	if result.Winner != nil {
		fields["winner"] = *result.Winner
		s.say(fmt.Sprintf("GG! Team %d wins.", *result.Winner))
	}

	if err := s.jobs.Complete(ctx, s.job.ID, result); err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Failed to record game result")
		return
	}
	s.jobStatus = domain.StatusCompleted
	s.logger.WithFields(fields).Info("Game result recorded")
}

// abandonJob marks the job CANCELLED unless it already reached a terminal
// status.
func (s *Session) abandonJob(ctx context.Context) {
	if s.jobStatus.Terminal() {
		return
	}
	if err := s.transition(ctx, domain.StatusCancelled); err != nil {
		s.logger.WithError(err).Error("Failed to cancel job")
	}
}
