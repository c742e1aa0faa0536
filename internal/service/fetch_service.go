package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/AdamBeresnev/league-app/internal/isc"
	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/AdamBeresnev/league-app/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ResultFetcher pulls finished games from the external provider and submits
// them into the validation flow on behalf of the first player. A result the
// provider cannot find is simply skipped; players submit manually instead.
type ResultFetcher struct {
	provider isc.Provider
	events   *store.EventStore
	players  *store.PlayerStore
	matches  *MatchService
}

func NewResultFetcher(provider isc.Provider, events *store.EventStore, players *store.PlayerStore, matches *MatchService) *ResultFetcher {
	return &ResultFetcher{provider: provider, events: events, players: players, matches: matches}
}

const fetchConcurrency = 4

type fetchedResult struct {
	matchID  uuid.UUID
	playerID uuid.UUID
	score    league.Score
}

// FetchEventResults queries the provider for every match of the event that
// still awaits submissions, and returns how many results were submitted.
// Lookups run concurrently; submissions go through the match service so the
// usual per-match serialization applies.
func (s *ResultFetcher) FetchEventResults(ctx context.Context, eventID uuid.UUID) (int, error) {
	awaiting, err := s.events.GetAwaitingMatches(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to load awaiting matches: %w", err)
	}

	playerList, err := s.players.ListPlayers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load players: %w", err)
	}
	byID := make(map[uuid.UUID]league.Player, len(playerList))
	for _, p := range playerList {
		byID[p.ID] = p
	}

	var mu sync.Mutex
	var results []fetchedResult

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i := range awaiting {
		m := awaiting[i]
		p1, ok1 := byID[m.Player1ID]
		if !ok1 || m.Player2ID == nil {
			continue
		}
		p2, ok2 := byID[*m.Player2ID]
		if !ok2 || p1.ISCUsername == nil || p2.ISCUsername == nil {
			continue
		}

		g.Go(func() error {
			score, found, err := s.provider.FetchResult(gctx, *p1.ISCUsername, *p2.ISCUsername)
			if err != nil {
				// A lookup failure never fails the sweep; the match stays
				// awaiting and the next sweep retries it.
				slog.Warn("result lookup failed", "match", m.ID, "error", err)
				return nil
			}
			if !found {
				return nil
			}
			mu.Lock()
			results = append(results, fetchedResult{matchID: m.ID, playerID: p1.ID, score: score})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].matchID.String() < results[j].matchID.String()
	})

	submitted := 0
	for _, r := range results {
		if _, err := s.matches.SubmitResult(ctx, r.matchID, r.playerID, r.score); err != nil {
			if errors.Is(err, league.ErrMatchFinalized) {
				continue
			}
			return submitted, err
		}
		submitted++
	}
	return submitted, nil
}
