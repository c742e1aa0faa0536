package rating

import (
	"testing"
	"time"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlayer(rating, matches int) league.Player {
	return league.Player{
		ID:            uuid.New(),
		Name:          "player-" + uuid.NewString()[:8],
		Rating:        rating,
		Category:      league.CategoryOf(rating),
		MatchesPlayed: matches,
	}
}

func resolvedMatch(p1, p2 league.Player, score league.Score, at time.Time) league.Match {
	p2ID := p2.ID
	m := league.Match{
		ID:          uuid.New(),
		EventID:     uuid.New(),
		RoundNumber: 1,
		Player1ID:   p1.ID,
		Player2ID:   &p2ID,
		Rating1:     p1.Rating,
		Rating2:     p2.Rating,
		Category1:   p1.Category,
		Category2:   p2.Category,
		State:       league.StateValid,
	}
	m.SetResult(score, at)
	return m
}

func TestApplyResultsUpdatesBothSides(t *testing.T) {
	now := time.Now()
	p1 := testPlayer(1200, 5)
	p2 := testPlayer(1200, 5)
	reg := league.NewRegistry([]league.Player{p1, p2})

	m := resolvedMatch(p1, p2, league.Score{P1: 410, P2: 320}, now)

	entries, err := ApplyResults(reg, []league.Match{m}, now)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	winner, _ := reg.Get(p1.ID)
	loser, _ := reg.Get(p2.ID)
	assert.Equal(t, 1215, winner.Rating)
	assert.Equal(t, 1185, loser.Rating)
	assert.Equal(t, 6, winner.MatchesPlayed)
	assert.Equal(t, 6, loser.MatchesPlayed)

	assert.Equal(t, league.OutcomeWin, entries[0].Outcome)
	assert.Equal(t, league.OutcomeLoss, entries[1].Outcome)
	assert.Equal(t, 15, entries[0].RatingDelta)
	assert.Equal(t, -15, entries[1].RatingDelta)
	assert.Equal(t, 1215, entries[0].RatingAfter)
	assert.Equal(t, 1185, entries[1].RatingAfter)
	assert.Equal(t, 3, entries[0].PR)
	assert.Equal(t, 0, entries[1].PR)
	assert.Equal(t, entries[0].DS, entries[1].DS)
	require.NotNil(t, entries[0].OpponentID)
	assert.Equal(t, p2.ID, *entries[0].OpponentID)
	require.NotNil(t, entries[1].OpponentID)
	assert.Equal(t, p1.ID, *entries[1].OpponentID)
}

func TestApplyResultsZeroSum(t *testing.T) {
	now := time.Now()
	players := []league.Player{
		testPlayer(1150, 2),
		testPlayer(1420, 44),
		testPlayer(1780, 90),
		testPlayer(1930, 160),
	}
	reg := league.NewRegistry(players)

	before := 0
	for _, p := range players {
		before += p.Rating
	}

	matches := []league.Match{
		resolvedMatch(players[0], players[3], league.Score{P1: 390, P2: 401}, now),
		resolvedMatch(players[1], players[2], league.Score{P1: 360, P2: 360}, now),
	}

	_, err := ApplyResults(reg, matches, now)
	require.NoError(t, err)

	// Far from the floor, rating is conserved across the pool.
	after := 0
	for _, p := range reg.Players() {
		after += p.Rating
	}
	assert.Equal(t, before, after)
}

func TestApplyResultsCategoryPromotion(t *testing.T) {
	now := time.Now()
	p1 := testPlayer(1395, 10)
	p2 := testPlayer(1395, 10)
	reg := league.NewRegistry([]league.Player{p1, p2})

	m := resolvedMatch(p1, p2, league.Score{P1: 500, P2: 100}, now)

	entries, err := ApplyResults(reg, []league.Match{m}, now)
	require.NoError(t, err)

	winner, _ := reg.Get(p1.ID)
	assert.Equal(t, 1410, winner.Rating)
	assert.Equal(t, league.Amethyste, winner.Category)

	// The history line records the category held when the match was
	// played, not the one just earned.
	assert.Equal(t, league.Onyx, entries[0].CategoryAtTime)
	assert.Equal(t, league.CategoryOf(entries[0].RatingAfter), winner.Category)
}

func TestApplyResultsBye(t *testing.T) {
	now := time.Now()
	p := testPlayer(1500, 20)
	reg := league.NewRegistry([]league.Player{p})

	m := league.Match{
		ID:          uuid.New(),
		EventID:     uuid.New(),
		RoundNumber: 2,
		Player1ID:   p.ID,
		Rating1:     p.Rating,
		Category1:   p.Category,
		IsBye:       true,
		State:       league.StateValid,
	}

	entries, err := ApplyResults(reg, []league.Match{m}, now)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, _ := reg.Get(p.ID)
	assert.Equal(t, 1500, got.Rating)
	assert.Equal(t, 20, got.MatchesPlayed)
	assert.Equal(t, 1, got.Byes)

	assert.Equal(t, league.OutcomeBye, entries[0].Outcome)
	assert.Equal(t, 0, entries[0].RatingDelta)
	assert.Nil(t, entries[0].OpponentID)
}

func TestApplyResultsRejectsWholeBatch(t *testing.T) {
	now := time.Now()
	p1 := testPlayer(1300, 8)
	p2 := testPlayer(1350, 9)
	p3 := testPlayer(1250, 7)
	p4 := testPlayer(1280, 6)
	reg := league.NewRegistry([]league.Player{p1, p2, p3, p4})

	good := resolvedMatch(p1, p2, league.Score{P1: 400, P2: 300}, now)
	bad := resolvedMatch(p3, p4, league.Score{P1: 300, P2: 400}, now)
	bad.State = league.StateDisputed

	entries, err := ApplyResults(reg, []league.Match{good, bad}, now)

	var invalid *league.InvalidResultError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, bad.ID, invalid.MatchID)
	assert.Nil(t, entries)

	// The valid match must not have been applied either.
	got, _ := reg.Get(p1.ID)
	assert.Equal(t, 1300, got.Rating)
	assert.Equal(t, 8, got.MatchesPlayed)
}

func TestApplyResultsUnknownPlayer(t *testing.T) {
	now := time.Now()
	p1 := testPlayer(1300, 8)
	stranger := testPlayer(1300, 8)
	reg := league.NewRegistry([]league.Player{p1})

	m := resolvedMatch(p1, stranger, league.Score{P1: 400, P2: 300}, now)

	_, err := ApplyResults(reg, []league.Match{m}, now)
	var invalid *league.InvalidResultError
	require.ErrorAs(t, err, &invalid)
}
