package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/AdamBeresnev/league-app/internal/pairing"
	"github.com/AdamBeresnev/league-app/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves canned results keyed by "player1/player2".
type fakeProvider struct {
	results map[string]league.Score
	failOn  map[string]bool
}

func (f *fakeProvider) FetchResult(_ context.Context, player1, player2 string) (league.Score, bool, error) {
	key := player1 + "/" + player2
	if f.failOn[key] {
		return league.Score{}, false, errors.New("provider unavailable")
	}
	score, ok := f.results[key]
	return score, ok, nil
}

func seedISCPool(t *testing.T, ctx context.Context, env *testEnv, n int) []league.Player {
	t.Helper()
	pool := make([]league.Player, n)
	for i := range pool {
		p := seedPlayer(t, ctx, env.players, fmt.Sprintf("Player %d", i+1), 1200+50*i, 5)
		username := fmt.Sprintf("isc_player_%d", i+1)
		_, err := env.db.Exec("UPDATE players SET isc_username = ? WHERE id = ?", username, p.ID)
		require.NoError(t, err)
		p.ISCUsername = utils.Ptr(username)
		pool[i] = p
	}
	return pool
}

func usernameOf(pool []league.Player, id uuid.UUID) string {
	for _, p := range pool {
		if p.ID == id {
			return *p.ISCUsername
		}
	}
	return ""
}

func TestFetchEventResults(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	matchSvc := NewMatchService(env.db, env.events, 0)

	pool := seedISCPool(t, ctx, env, 4)
	event := openEvent(t, ctx, env.event, "Online League")

	rp, err := env.event.GeneratePairings(ctx, event.ID, pairing.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, rp.Matches, 2)

	// The provider knows the first match's result; the second stays open.
	known := rp.Matches[0]
	provider := &fakeProvider{results: map[string]league.Score{
		usernameOf(pool, known.Player1ID) + "/" + usernameOf(pool, *known.Player2ID): {P1: 412, P2: 389},
	}}

	fetcher := NewResultFetcher(provider, env.events, env.players, matchSvc)
	submitted, err := fetcher.FetchEventResults(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, submitted)

	stored, err := matchSvc.GetMatch(ctx, known.ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatePartiallyValid, stored.State)
	require.NotNil(t, stored.Claim(1))
	assert.Equal(t, league.Score{P1: 412, P2: 389}, *stored.Claim(1))

	other, err := matchSvc.GetMatch(ctx, rp.Matches[1].ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatePending, other.State)

	// Re-running the sweep resubmits the same claim, which is a no-op for
	// the match state.
	submitted, err = fetcher.FetchEventResults(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, submitted)

	stored, err = matchSvc.GetMatch(ctx, known.ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatePartiallyValid, stored.State)
}

func TestFetchEventResultsToleratesProviderFailures(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	matchSvc := NewMatchService(env.db, env.events, 0)

	pool := seedISCPool(t, ctx, env, 4)
	event := openEvent(t, ctx, env.event, "Flaky League")

	rp, err := env.event.GeneratePairings(ctx, event.ID, pairing.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, rp.Matches, 2)

	good, bad := rp.Matches[0], rp.Matches[1]
	provider := &fakeProvider{
		results: map[string]league.Score{
			usernameOf(pool, good.Player1ID) + "/" + usernameOf(pool, *good.Player2ID): {P1: 400, P2: 350},
		},
		failOn: map[string]bool{
			usernameOf(pool, bad.Player1ID) + "/" + usernameOf(pool, *bad.Player2ID): true,
		},
	}

	fetcher := NewResultFetcher(provider, env.events, env.players, matchSvc)
	submitted, err := fetcher.FetchEventResults(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, submitted)

	stored, err := matchSvc.GetMatch(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatePending, stored.State)
}

func TestFetchEventResultsSkipsPlayersWithoutUsernames(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	matchSvc := NewMatchService(env.db, env.events, 0)

	// No ISC usernames at all.
	seedPool(t, ctx, env.players, 1200, 1250)
	event := openEvent(t, ctx, env.event, "Offline League")

	_, err := env.event.GeneratePairings(ctx, event.ID, pairing.DefaultOptions())
	require.NoError(t, err)

	provider := &fakeProvider{results: map[string]league.Score{}}
	fetcher := NewResultFetcher(provider, env.events, env.players, matchSvc)
	submitted, err := fetcher.FetchEventResults(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, submitted)
}
