package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/paralin/go-dota2/protocol"

	"inhouse-lobby-bot/internal/domain"
	"inhouse-lobby-bot/internal/gc"
)

const maxTeamSize = 5

// expectedSide is the lobby side a team must sit on.
func expectedSide(team domain.Team, inverted bool) protocol.DOTA_GC_TEAM {
	if (team == domain.Team1) != inverted {
		return protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_GOOD_GUYS
	}
	return protocol.DOTA_GC_TEAM_DOTA_GC_TEAM_BAD_GUYS
}

// TeamFill is the seating progress of one team.
type TeamFill struct {
	Team        domain.Team
	Expected    int
	Present     int
	Missing     int
	RosterMatch bool
}

// FillReport is the seating progress of both teams.
type FillReport [2]TeamFill

// Ready reports whether both teams are complete and verified.
func (r FillReport) Ready() bool {
	for _, t := range r {
		if t.Missing > 0 || !t.RosterMatch {
			return false
		}
	}
	return true
}

// Status renders a chat line describing what is still missing.
func (r FillReport) Status(remaining time.Duration) string {
	var parts []string
	for _, t := range r {
		if t.Missing > 0 {
			parts = append(parts, fmt.Sprintf("Team %d missing %d player(s)", t.Team, t.Missing))
		}
		if !t.RosterMatch {
			parts = append(parts, fmt.Sprintf("Team %d roster not verified", t.Team))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "all players seated")
	}
	minutes := int(remaining.Round(time.Minute) / time.Minute)
	return fmt.Sprintf("Waiting for players (%d min left): %s", minutes, strings.Join(parts, ", "))
}

// checkTeams counts rostered players seated on their expected side and
// verifies the pro team id the GC reports for that side.
func checkTeams(lobby gc.Lobby, job *domain.Job, inverted bool) FillReport {
	var report FillReport
	for i, team := range []domain.Team{domain.Team1, domain.Team2} {
		side := expectedSide(team, inverted)
		roster := job.Roster(team)

		expected := len(roster)
		if expected > maxTeamSize {
			expected = maxTeamSize
		}

		present := 0
		for _, m := range lobby.Members {
			if m.Team != side {
				continue
			}
			if t, ok := job.TeamOf(int64(m.SteamID)); ok && t == team {
				present++
			}
		}

		missing := expected - present
		if missing < 0 {
			missing = 0
		}

		wantID := job.TeamID(team)
		report[i] = TeamFill{
			Team:        team,
			Expected:    expected,
			Present:     present,
			Missing:     missing,
			RosterMatch: wantID == 0 || int64(lobby.TeamID(side)) == wantID,
		}
	}
	return report
}

// seatedAs reports whether the lobby seating leans towards the given
// inversion: the pro team id of team 1 sits on its side, or more rostered
// players sit on their side than on the opposite one.
func seatedAs(lobby gc.Lobby, job *domain.Job, inverted bool) bool {
	if id := job.TeamID(domain.Team1); id != 0 && int64(lobby.TeamID(expectedSide(domain.Team1, inverted))) == id {
		return true
	}
	lean := 0
	for _, m := range lobby.Members {
		team, ok := job.TeamOf(int64(m.SteamID))
		if !ok {
			continue
		}
		switch m.Team {
		case expectedSide(team, inverted):
			lean++
		case expectedSide(team, !inverted):
			lean--
		}
	}
	return lean > 0
}
