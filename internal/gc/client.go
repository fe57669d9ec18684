package gc

import (
	"context"

	"github.com/paralin/go-dota2/protocol"

	"inhouse-lobby-bot/internal/domain"
)

// Client is everything a bot session needs from the game coordinator. All
// asynchronous notifications arrive on Events.
type Client interface {
	Events() <-chan Event
	// SteamID is the 64-bit id of the logged in bot, 0 before login.
	SteamID() uint64

	Connect()
	Login(cred domain.Credential)
	StartGC()

	CreateLobby(cfg LobbyConfig)
	ConfigureLobby(lobbyID uint64, cfg LobbyConfig)
	JoinChat(ctx context.Context, lobbyID uint64) error
	JoinTeam(team protocol.DOTA_GC_TEAM, slot uint32)
	KickMember(steamID uint64)
	KickFromTeam(steamID uint64)
	FlipTeams()
	LaunchLobby()
	DestroyLobby(ctx context.Context) error
	SendChat(message string)

	Close()
}

// LobbyConfig holds the practice lobby options a session controls.
type LobbyConfig struct {
	Name         string
	Password     string
	ServerRegion uint32
	GameMode     uint32
	CMPick       protocol.DOTA_CM_PICK
}

// Details converts the config into a GC lobby details message. A zero
// lobbyID leaves the id unset so the GC assigns one on creation.
func (c LobbyConfig) Details(lobbyID uint64) *protocol.CMsgPracticeLobbySetDetails {
	gameName := c.Name
	passKey := c.Password
	serverRegion := c.ServerRegion
	gameMode := c.GameMode
	seriesType := uint32(0)
	allowCheats := false
	fillWithBots := false
	allowSpectating := true
	allChat := true
	lan := false

	details := &protocol.CMsgPracticeLobbySetDetails{
		GameName:               &gameName,
		PassKey:                &passKey,
		ServerRegion:           &serverRegion,
		GameMode:               &gameMode,
		CmPick:                 c.CMPick.Enum(),
		AllowCheats:            &allowCheats,
		FillWithBots:           &fillWithBots,
		AllowSpectating:        &allowSpectating,
		Allchat:                &allChat,
		Lan:                    &lan,
		SeriesType:             &seriesType,
		Visibility:             protocol.DOTALobbyVisibility_DOTALobbyVisibility_Public.Enum(),
		PauseSetting:           protocol.LobbyDotaPauseSetting_LobbyDotaPauseSetting_Limited.Enum(),
		SelectionPriorityRules: protocol.DOTASelectionPriorityRules_k_DOTASelectionPriorityRules_Manual.Enum(),
		DotaTvDelay:            protocol.LobbyDotaTVDelay_LobbyDotaTV_10.Enum(),
	}
	if lobbyID != 0 {
		details.LobbyId = &lobbyID
	}
	return details
}

// Member is one lobby occupant.
type Member struct {
	SteamID uint64
	Team    protocol.DOTA_GC_TEAM
}

// Lobby is a snapshot of the practice lobby as reported by the GC.
type Lobby struct {
	ID            uint64
	State         protocol.CSODOTALobby_State
	GameState     protocol.DOTA_GameState
	Members       []Member
	RadiantTeamID uint32
	DireTeamID    uint32
	MatchID       uint64
	Outcome       protocol.EMatchOutcome
}

// Launched reports whether the lobby has left the setup screen.
func (l Lobby) Launched() bool {
	switch l.State {
	case protocol.CSODOTALobby_UI, protocol.CSODOTALobby_READYUP, protocol.CSODOTALobby_NOTREADY:
		return false
	}
	return true
}

// Finished reports whether the match ended.
func (l Lobby) Finished() bool {
	return l.State == protocol.CSODOTALobby_POSTGAME ||
		l.GameState == protocol.DOTA_GameState_DOTA_GAMERULES_STATE_POST_GAME
}

// TeamID returns the pro team id the GC reports for a playing side.
func (l Lobby) TeamID(side protocol.DOTA_GC_TEAM) uint32 {
	if side == protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_GOOD_GUYS {
		return l.RadiantTeamID
	}
	return l.DireTeamID
}

const steamID64Base = 76561197960265728

// AccountID converts a 64-bit steam id to the 32-bit account id the GC uses.
func AccountID(steamID uint64) uint32 {
	return uint32(steamID & 0xFFFFFFFF)
}

// SteamID64 converts a 32-bit account id to an individual 64-bit steam id.
func SteamID64(accountID uint32) uint64 {
	return steamID64Base + uint64(accountID)
}
