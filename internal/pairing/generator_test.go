package pairing

import (
	"testing"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePlayers(ratings ...int) []league.Player {
	players := make([]league.Player, len(ratings))
	for i, r := range ratings {
		players[i] = league.Player{
			ID:       uuid.New(),
			Name:     "player-" + uuid.NewString()[:8],
			Rating:   r,
			Category: league.CategoryOf(r),
		}
	}
	return players
}

func pastMatch(eventID uuid.UUID, a, b league.Player) league.Match {
	bID := b.ID
	return league.Match{
		ID:        uuid.New(),
		EventID:   eventID,
		Player1ID: a.ID,
		Player2ID: &bID,
		State:     league.StateValid,
	}
}

func pastBye(eventID uuid.UUID, p league.Player) league.Match {
	return league.Match{
		ID:        uuid.New(),
		EventID:   eventID,
		Player1ID: p.ID,
		IsBye:     true,
		State:     league.StateValid,
	}
}

// participants collects every player id appearing in the result, failing on
// duplicates.
func participants(t *testing.T, res *Result) map[uuid.UUID]bool {
	t.Helper()
	seen := make(map[uuid.UUID]bool)
	for _, pair := range res.Pairs {
		require.False(t, seen[pair.Player1.ID], "player paired twice")
		seen[pair.Player1.ID] = true
		if pair.IsBye {
			assert.Nil(t, pair.Player2)
			continue
		}
		require.NotNil(t, pair.Player2)
		require.False(t, seen[pair.Player2.ID], "player paired twice")
		seen[pair.Player2.ID] = true
	}
	return seen
}

func TestGenerateEvenPool(t *testing.T) {
	players := makePlayers(1200, 1250, 1300, 1350)

	res, err := Generate(players, nil, DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, res.Pairs, 2)
	assert.Nil(t, res.ByePlayerID)
	assert.Equal(t, 0, res.ForcedRematches)

	seen := participants(t, res)
	assert.Len(t, seen, 4)
	for _, p := range players {
		assert.True(t, seen[p.ID])
	}
}

func TestGenerateOddPoolAssignsOneBye(t *testing.T) {
	players := makePlayers(1200, 1250, 1300, 1350, 1400)

	res, err := Generate(players, nil, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Pairs, 3)
	require.NotNil(t, res.ByePlayerID)

	byes := 0
	for _, pair := range res.Pairs {
		if pair.IsBye {
			byes++
			assert.Equal(t, *res.ByePlayerID, pair.Player1.ID)
		}
	}
	assert.Equal(t, 1, byes)
	assert.Len(t, participants(t, res), 5)
}

func TestGenerateTooFewPlayers(t *testing.T) {
	var constraint *league.ConstraintViolationError

	_, err := Generate(nil, nil, DefaultOptions())
	require.ErrorAs(t, err, &constraint)

	_, err = Generate(makePlayers(1200), nil, DefaultOptions())
	require.ErrorAs(t, err, &constraint)
	assert.Len(t, constraint.Players, 1)
}

func TestGenerateDeterministic(t *testing.T) {
	players := makePlayers(1200, 1250, 1300, 1350, 1400, 1450, 1500)
	eventID := uuid.New()
	history := []league.Match{
		pastMatch(eventID, players[0], players[1]),
		pastMatch(eventID, players[2], players[3]),
		pastBye(eventID, players[4]),
	}

	first, err := Generate(players, history, DefaultOptions())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Generate(players, history, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerateAvoidsRematchesWhenPossible(t *testing.T) {
	players := makePlayers(1200, 1210, 1220, 1230)
	eventID := uuid.New()

	// One prior round; a fresh rematch-free matching still exists.
	history := []league.Match{
		pastMatch(eventID, players[0], players[1]),
		pastMatch(eventID, players[2], players[3]),
	}

	res, err := Generate(players, history, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, res.ForcedRematches)
	for _, pair := range res.Pairs {
		assert.False(t, pair.IsRematch)
	}
}

func TestGenerateMinimizesForcedRematches(t *testing.T) {
	players := makePlayers(1200, 1210, 1220, 1230)
	eventID := uuid.New()

	// All six pairings already played: every matching forces two rematches.
	var history []league.Match
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			history = append(history, pastMatch(eventID, players[i], players[j]))
		}
	}

	res, err := Generate(players, history, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, res.ForcedRematches)
	for _, pair := range res.Pairs {
		assert.True(t, pair.IsRematch)
	}
}

func TestGenerateByeFairness(t *testing.T) {
	players := makePlayers(1200, 1250, 1300)
	eventID := uuid.New()

	res, err := Generate(players, nil, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, res.ByePlayerID)
	firstBye := *res.ByePlayerID

	// With the first bye on record, the next round must pick someone else.
	history := []league.Match{}
	for _, p := range players {
		if p.ID == firstBye {
			history = append(history, pastBye(eventID, p))
		}
	}

	res, err = Generate(players, history, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, res.ByePlayerID)
	assert.NotEqual(t, firstBye, *res.ByePlayerID)
}

func TestGenerateByePrefersFewestCareerByes(t *testing.T) {
	players := makePlayers(1200, 1250, 1300)
	players[0].Byes = 2
	players[1].Byes = 0
	players[2].Byes = 1

	res, err := Generate(players, nil, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, res.ByePlayerID)
	assert.Equal(t, players[1].ID, *res.ByePlayerID)
}

func TestGenerateBalancesCategories(t *testing.T) {
	players := makePlayers(1200, 1250, 1450, 1500, 1750, 1800)

	res, err := Generate(players, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Pairs, 3)

	for _, pair := range res.Pairs {
		require.NotNil(t, pair.Player2)
		assert.Equal(t, pair.Player1.Category, pair.Player2.Category,
			"%s paired across categories with %s", pair.Player1.Name, pair.Player2.Name)
	}
}

func TestGenerateOddCategoryCarriesPlayerDown(t *testing.T) {
	// Three Topaze players and three Onyx players: the lowest-rated Topaze
	// must drop into the Onyx pool, never the other way around.
	players := makePlayers(1700, 1750, 1800, 1200, 1250, 1300)

	res, err := Generate(players, nil, Options{AvoidRematches: true, BalanceCategories: true})
	require.NoError(t, err)
	require.Len(t, res.Pairs, 3)

	crossPairs := 0
	for _, pair := range res.Pairs {
		require.NotNil(t, pair.Player2)
		if pair.Player1.Category != pair.Player2.Category {
			crossPairs++
			low := pair.Player1
			if pair.Player2.Category == league.Topaze {
				low = *pair.Player2
			}
			assert.Equal(t, 1700, low.Rating)
		}
	}
	assert.Equal(t, 1, crossPairs)
}

func TestGenerateWithoutCategoryBalancing(t *testing.T) {
	players := makePlayers(1200, 1950, 1250, 1900)

	res, err := Generate(players, nil, Options{AvoidRematches: true, BalanceCategories: false})
	require.NoError(t, err)
	assert.Len(t, res.Pairs, 2)
	assert.Len(t, participants(t, res), 4)
}
