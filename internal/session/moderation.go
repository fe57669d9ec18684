package session

import (
	"github.com/paralin/go-dota2/protocol"

	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/gc"
)

type kickKind string

const (
	kickFromLobby kickKind = "lobby"
	kickFromTeam  kickKind = "team"
)

// kick is one moderation action. Team is the slot the member was seen in,
// so a member who returns to a wrong slot after being moved is kicked again.
type kick struct {
	SteamID uint64
	Kind    kickKind
	Team    protocol.DOTA_GC_TEAM
}

func isPlayingSide(team protocol.DOTA_GC_TEAM) bool {
	return team == protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_GOOD_GUYS ||
		team == protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_BAD_GUYS
}

// planKicks lists the actions a lobby snapshot calls for.
func planKicks(lobby gc.Lobby, job *domain.Job, vips domain.VIPSet, inverted bool, botID uint64) []kick {
	var kicks []kick
	for _, m := range lobby.Members {
		if m.SteamID == botID {
			if isPlayingSide(m.Team) {
				kicks = append(kicks, kick{m.SteamID, kickFromTeam, m.Team})
			}
			continue
		}

		id := int64(m.SteamID)
		team, rostered := job.TeamOf(id)
		vip := vips.IsVIP(id)

		switch {
		case !rostered && !vip:
			kicks = append(kicks, kick{m.SteamID, kickFromLobby, m.Team})
		case m.Team == protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_SPECTATOR:
			kicks = append(kicks, kick{m.SteamID, kickFromTeam, m.Team})
		case m.Team == protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_BROADCASTER && !vip:
			kicks = append(kicks, kick{m.SteamID, kickFromTeam, m.Team})
		case isPlayingSide(m.Team) && !rostered:
			kicks = append(kicks, kick{m.SteamID, kickFromTeam, m.Team})
		case isPlayingSide(m.Team) && m.Team != expectedSide(team, inverted):
			kicks = append(kicks, kick{m.SteamID, kickFromTeam, m.Team})
		}
	}
	return kicks
}

// moderator remembers issued kicks so re-applying the same snapshot is a
// no-op. A kick is re-armed once the snapshot no longer calls for it.
type moderator struct {
	issued map[kick]bool
}

func newModerator() *moderator {
	return &moderator{issued: make(map[kick]bool)}
}

// review returns the kicks of the snapshot that were not issued yet.
func (m *moderator) review(lobby gc.Lobby, job *domain.Job, vips domain.VIPSet, inverted bool, botID uint64) []kick {
	wanted := planKicks(lobby, job, vips, inverted, botID)

	issued := make(map[kick]bool, len(wanted))
	var fresh []kick
	for _, k := range wanted {
		if !m.issued[k] {
			fresh = append(fresh, k)
		}
		issued[k] = true
	}
	m.issued = issued
	return fresh
}
