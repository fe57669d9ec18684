package testutil

import (
	"context"
	"sync"

	"github.com/paralin/go-dota2/protocol"

	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/gc"
)

// FakeLobbyID is the id the fake GC assigns to created lobbies.
const FakeLobbyID uint64 = 4242

// FakeClient is an in-process gc.Client. Connection steps succeed at once
// and lobby commands mutate a local lobby that is echoed back as events.
type FakeClient struct {
	events chan gc.Event

	mu          sync.Mutex
	lobby       gc.Lobby
	hosted      bool
	launchFails int
	staleFlip   bool
	chats       []string
	configs     []gc.LobbyConfig
	lobbyKicks  []uint64
	teamKicks   []uint64
	logins      []domain.Credential
	flips       int
	launches    int
	destroyed   bool
	closed      bool
}

// NewFakeClient creates a fake whose bot is already known to Steam.
func NewFakeClient() *FakeClient {
	return &FakeClient{events: make(chan gc.Event, 256)}
}

// FailLaunches makes the next n launch requests go unanswered.
func (f *FakeClient) FailLaunches(n int) {
	f.mu.Lock()
	f.launchFails = n
	f.mu.Unlock()
}

// EchoStaleFlip makes FlipTeams deliver the pre-flip lobby once more before
// the flipped one, as the GC does when an update is already in flight.
func (f *FakeClient) EchoStaleFlip() {
	f.mu.Lock()
	f.staleFlip = true
	f.mu.Unlock()
}

func (f *FakeClient) Events() <-chan gc.Event { return f.events }

func (f *FakeClient) SteamID() uint64 { return BotSteamID }

func (f *FakeClient) Connect() { f.emit(gc.Connected{}) }

func (f *FakeClient) Login(cred domain.Credential) {
	f.mu.Lock()
	f.logins = append(f.logins, cred)
	f.mu.Unlock()
	f.emit(gc.LoggedOn{})
}

func (f *FakeClient) StartGC() { f.emit(gc.GCReady{}) }

func (f *FakeClient) CreateLobby(cfg gc.LobbyConfig) {
	f.mu.Lock()
	f.configs = append(f.configs, cfg)
	f.hosted = true
	f.lobby = gc.Lobby{
		ID:    FakeLobbyID,
		State: protocol.CSODOTALobby_UI,
		Members: []gc.Member{
			{SteamID: BotSteamID, Team: protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_GOOD_GUYS},
		},
	}
	f.mu.Unlock()
	f.publish()
}

func (f *FakeClient) ConfigureLobby(_ uint64, cfg gc.LobbyConfig) {
	f.mu.Lock()
	f.configs = append(f.configs, cfg)
	f.mu.Unlock()
}

func (f *FakeClient) JoinChat(context.Context, uint64) error { return nil }

func (f *FakeClient) JoinTeam(team protocol.DOTA_GC_TEAM, _ uint32) {
	f.mu.Lock()
	f.moveLocked(BotSteamID, team)
	f.mu.Unlock()
	f.publish()
}

func (f *FakeClient) KickMember(steamID uint64) {
	f.mu.Lock()
	f.lobbyKicks = append(f.lobbyKicks, steamID)
	members := f.lobby.Members[:0:0]
	for _, m := range f.lobby.Members {
		if m.SteamID != steamID {
			members = append(members, m)
		}
	}
	f.lobby.Members = members
	f.mu.Unlock()
	f.publish()
}

func (f *FakeClient) KickFromTeam(steamID uint64) {
	f.mu.Lock()
	f.teamKicks = append(f.teamKicks, steamID)
	f.moveLocked(steamID, protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_PLAYER_POOL)
	f.mu.Unlock()
	f.publish()
}

func (f *FakeClient) FlipTeams() {
	f.mu.Lock()
	stale := f.staleFlip
	f.mu.Unlock()
	if stale {
		f.publish()
	}

	f.mu.Lock()
	f.flips++
	for i, m := range f.lobby.Members {
		switch m.Team {
		case protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_GOOD_GUYS:
			f.lobby.Members[i].Team = protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_BAD_GUYS
		case protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_BAD_GUYS:
			f.lobby.Members[i].Team = protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_GOOD_GUYS
		}
	}
	f.lobby.RadiantTeamID, f.lobby.DireTeamID = f.lobby.DireTeamID, f.lobby.RadiantTeamID
	f.mu.Unlock()
	f.publish()
}

func (f *FakeClient) LaunchLobby() {
	f.mu.Lock()
	f.launches++
	if f.launchFails > 0 {
		f.launchFails--
		f.mu.Unlock()
		return
	}
	f.lobby.State = protocol.CSODOTALobby_RUN
	f.mu.Unlock()
	f.publish()
}

func (f *FakeClient) DestroyLobby(context.Context) error {
	f.mu.Lock()
	f.destroyed = true
	f.mu.Unlock()
	return nil
}

func (f *FakeClient) SendChat(message string) {
	f.mu.Lock()
	f.chats = append(f.chats, message)
	f.mu.Unlock()
}

func (f *FakeClient) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// Seat places a player on a lobby team, joining them if needed.
func (f *FakeClient) Seat(steamID int64, team protocol.DOTA_GC_TEAM) {
	f.mu.Lock()
	if !f.moveLocked(uint64(steamID), team) {
		f.lobby.Members = append(f.lobby.Members, gc.Member{SteamID: uint64(steamID), Team: team})
	}
	f.mu.Unlock()
	f.publish()
}

// SetTeamIDs sets the pro team ids the GC reports for radiant and dire.
func (f *FakeClient) SetTeamIDs(radiant, dire uint32) {
	f.mu.Lock()
	f.lobby.RadiantTeamID = radiant
	f.lobby.DireTeamID = dire
	f.mu.Unlock()
	f.publish()
}

// FinishGame moves the lobby to post game with outcome.
func (f *FakeClient) FinishGame(matchID uint64, outcome protocol.EMatchOutcome) {
	f.mu.Lock()
	f.lobby.State = protocol.CSODOTALobby_POSTGAME
	f.lobby.MatchID = matchID
	f.lobby.Outcome = outcome
	f.mu.Unlock()
	f.publish()
}

// Say posts a lobby chat message as steamID.
func (f *FakeClient) Say(steamID int64, text string) {
	f.emit(gc.ChatMessage{SteamID: uint64(steamID), Text: text})
}

// Emit injects an arbitrary event.
func (f *FakeClient) Emit(ev gc.Event) { f.emit(ev) }

func (f *FakeClient) Chats() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.chats...)
}

func (f *FakeClient) Configs() []gc.LobbyConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gc.LobbyConfig(nil), f.configs...)
}

func (f *FakeClient) LobbyKicks() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.lobbyKicks...)
}

func (f *FakeClient) TeamKicks() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.teamKicks...)
}

func (f *FakeClient) Logins() []domain.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Credential(nil), f.logins...)
}

func (f *FakeClient) Flips() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flips
}

func (f *FakeClient) Launches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launches
}

func (f *FakeClient) Destroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

func (f *FakeClient) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeClient) moveLocked(steamID uint64, team protocol.DOTA_GC_TEAM) bool {
	for i, m := range f.lobby.Members {
		if m.SteamID == steamID {
			f.lobby.Members[i].Team = team
			return true
		}
	}
	return false
}

func (f *FakeClient) publish() {
	f.mu.Lock()
	if !f.hosted {
		f.mu.Unlock()
		return
	}
	snapshot := f.lobby
	snapshot.Members = append([]gc.Member(nil), f.lobby.Members...)
	f.mu.Unlock()
	f.emit(gc.LobbyChanged{Lobby: snapshot})
}

func (f *FakeClient) emit(ev gc.Event) {
	f.events <- ev
}
