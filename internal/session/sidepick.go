package session

import (
	"math/rand"
	"strings"

	"github.com/paralin/go-dota2/protocol"

	"inhouse-lobby-bot/internal/domain"
)

// Choice is one side/pick option a captain can take.
type Choice string

const (
	ChoiceFirstPick  Choice = "fp"
	ChoiceSecondPick Choice = "sp"
	ChoiceRadiant    Choice = "radiant"
	ChoiceDire       Choice = "dire"
)

var allChoices = []Choice{ChoiceFirstPick, ChoiceSecondPick, ChoiceRadiant, ChoiceDire}

// Complement returns the choice that becomes unavailable together with c.
func (c Choice) Complement() Choice {
	switch c {
	case ChoiceFirstPick:
		return ChoiceSecondPick
	case ChoiceSecondPick:
		return ChoiceFirstPick
	case ChoiceRadiant:
		return ChoiceDire
	default:
		return ChoiceRadiant
	}
}

func parseChoice(token string) (Choice, bool) {
	for _, c := range allChoices {
		if string(c) == token {
			return c, true
		}
	}
	return "", false
}

// choicePool holds the choices still open for choosing, in a fixed order.
type choicePool []Choice

func newChoicePool() choicePool {
	pool := make(choicePool, len(allChoices))
	copy(pool, allChoices)
	return pool
}

func (p choicePool) contains(c Choice) bool {
	for _, v := range p {
		if v == c {
			return true
		}
	}
	return false
}

// take removes c and its complement.
func (p choicePool) take(c Choice) choicePool {
	rest := make(choicePool, 0, len(p))
	for _, v := range p {
		if v != c && v != c.Complement() {
			rest = append(rest, v)
		}
	}
	return rest
}

func (p choicePool) random(r *rand.Rand) Choice {
	return p[r.Intn(len(p))]
}

func (p choicePool) String() string {
	tokens := make([]string, len(p))
	for i, c := range p {
		tokens[i] = "!" + string(c)
	}
	return strings.Join(tokens, ", ")
}

// sideAssignment is the outcome of the side/pick negotiation.
type sideAssignment struct {
	// inverted is set when team2 plays on radiant.
	inverted bool
	cmPick   protocol.DOTA_CM_PICK
}

// resolveSides maps both teams' choices to the lobby configuration. Each
// team holds exactly one side option and one pick option between them.
func resolveSides(choices map[domain.Team]Choice) sideAssignment {
	c1, c2 := choices[domain.Team1], choices[domain.Team2]

	var team1Radiant bool
	switch {
	case c1 == ChoiceRadiant:
		team1Radiant = true
	case c1 == ChoiceDire:
		team1Radiant = false
	default:
		team1Radiant = c2 == ChoiceDire
	}

	var team1First bool
	switch {
	case c1 == ChoiceFirstPick:
		team1First = true
	case c1 == ChoiceSecondPick:
		team1First = false
	default:
		team1First = c2 == ChoiceSecondPick
	}

	cmPick := protocol.DOTA_CM_PICK_DOTA_CM_BAD_GUYS
	if team1First == team1Radiant {
		cmPick = protocol.DOTA_CM_PICK_DOTA_CM_GOOD_GUYS
	}

	return sideAssignment{inverted: !team1Radiant, cmPick: cmPick}
}

// Winner maps the GC match outcome to the winning team. Outcomes other than
// a radiant or dire victory have no winner.
func Winner(outcome protocol.EMatchOutcome, inverted bool) *domain.Team {
	var radiantWon bool
	switch outcome {
	case protocol.EMatchOutcome_k_EMatchOutcome_RadVictory:
		radiantWon = true
	case protocol.EMatchOutcome_k_EMatchOutcome_DireVictory:
		radiantWon = false
	default:
		return nil
	}

	winner := domain.Team2
	if radiantWon != inverted {
		winner = domain.Team1
	}
	return &winner
}
