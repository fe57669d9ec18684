package session

import (
	"math/rand"
	"testing"

	"github.com/paralin/go-dota2/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inhouse-lobby-bot/internal/domain"
)

func TestResolveSides(t *testing.T) {
	const (
		goodFirst = protocol.DOTA_CM_PICK_DOTA_CM_GOOD_GUYS
		badFirst  = protocol.DOTA_CM_PICK_DOTA_CM_BAD_GUYS
	)

	tests := []struct {
		name     string
		team1    Choice
		team2    Choice
		inverted bool
		cmPick   protocol.DOTA_CM_PICK
	}{
		{"team1 radiant, team2 first pick", ChoiceRadiant, ChoiceFirstPick, false, badFirst},
		{"team1 radiant, team2 second pick", ChoiceRadiant, ChoiceSecondPick, false, goodFirst},
		{"team1 dire, team2 first pick", ChoiceDire, ChoiceFirstPick, true, goodFirst},
		{"team1 dire, team2 second pick", ChoiceDire, ChoiceSecondPick, true, badFirst},
		{"team1 first pick, team2 radiant", ChoiceFirstPick, ChoiceRadiant, true, badFirst},
		{"team1 first pick, team2 dire", ChoiceFirstPick, ChoiceDire, false, goodFirst},
		{"team1 second pick, team2 radiant", ChoiceSecondPick, ChoiceRadiant, true, goodFirst},
		{"team1 second pick, team2 dire", ChoiceSecondPick, ChoiceDire, false, badFirst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveSides(map[domain.Team]Choice{
				domain.Team1: tt.team1,
				domain.Team2: tt.team2,
			})
			assert.Equal(t, tt.inverted, got.inverted)
			assert.Equal(t, tt.cmPick, got.cmPick)
		})
	}
}

func TestChoicePool(t *testing.T) {
	pool := newChoicePool()
	assert.Equal(t, "!fp, !sp, !radiant, !dire", pool.String())

	rest := pool.take(ChoiceSecondPick)
	assert.Equal(t, choicePool{ChoiceRadiant, ChoiceDire}, rest)
	assert.Len(t, pool, 4, "take must not modify the receiver")
	assert.False(t, rest.contains(ChoiceFirstPick))

	assert.Empty(t, rest.take(ChoiceDire))
}

func TestChoicePool_RandomStaysInPool(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	pool := newChoicePool().take(ChoiceRadiant)
	for i := 0; i < 50; i++ {
		assert.True(t, pool.contains(pool.random(r)))
	}
}

func TestParseChoice(t *testing.T) {
	c, ok := parseChoice("radiant")
	assert.True(t, ok)
	assert.Equal(t, ChoiceRadiant, c)

	_, ok = parseChoice("mid")
	assert.False(t, ok)
}

func TestChoice_Complement(t *testing.T) {
	for _, c := range allChoices {
		assert.Equal(t, c, c.Complement().Complement())
		assert.NotEqual(t, c, c.Complement())
	}
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name     string
		outcome  protocol.EMatchOutcome
		inverted bool
		want     *domain.Team
	}{
		{"radiant wins", protocol.EMatchOutcome_k_EMatchOutcome_RadVictory, false, teamPtr(domain.Team1)},
		{"dire wins", protocol.EMatchOutcome_k_EMatchOutcome_DireVictory, false, teamPtr(domain.Team2)},
		{"radiant wins inverted", protocol.EMatchOutcome_k_EMatchOutcome_RadVictory, true, teamPtr(domain.Team2)},
		{"dire wins inverted", protocol.EMatchOutcome_k_EMatchOutcome_DireVictory, true, teamPtr(domain.Team1)},
		{"unknown outcome", protocol.EMatchOutcome_k_EMatchOutcome_Unknown, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Winner(tt.outcome, tt.inverted)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func teamPtr(t domain.Team) *domain.Team {
	return &t
}
