package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/AdamBeresnev/league-app/internal/pairing"
	"github.com/AdamBeresnev/league-app/internal/rating"
	"github.com/AdamBeresnev/league-app/internal/store"
	"github.com/AdamBeresnev/league-app/internal/validation"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type EventService struct {
	db      *sqlx.DB
	events  *store.EventStore
	players *store.PlayerStore
}

func NewEventService(db *sqlx.DB, events *store.EventStore, players *store.PlayerStore) *EventService {
	return &EventService{db: db, events: events, players: players}
}

func (s *EventService) CreateEvent(ctx context.Context, name string) (*league.Event, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: event name is required", league.ErrStateConflict)
	}
	event := &league.Event{
		ID:     uuid.New(),
		Name:   name,
		Status: league.EventDraft,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*league.Event, error) {
	return s.events.GetEvent(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context) ([]league.Event, error) {
	return s.events.ListEvents(ctx)
}

func (s *EventService) SetStatus(ctx context.Context, id uuid.UUID, next league.EventStatus) (*league.Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot move event from %q to %q", league.ErrStateConflict, event.Status, next)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	event.Status = next
	if err := s.events.UpdateEvent(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}
	return event, tx.Commit()
}

// RoundPairings is the outcome of a generation call: the new round and its
// persisted matches.
type RoundPairings struct {
	Round           *league.Round
	Matches         []league.Match
	ByePlayerID     *uuid.UUID
	ForcedRematches int
}

// GeneratePairings creates the next round for an open event. The previous
// round must be completed first: pairing always reads a registry snapshot
// with the prior round's rating updates fully applied, and the open-round
// check also keeps two generation calls for one event from interleaving.
func (s *EventService) GeneratePairings(ctx context.Context, eventID uuid.UUID, opts pairing.Options) (*RoundPairings, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != league.EventOpen {
		return nil, fmt.Errorf("%w: event %q is not open", league.ErrStateConflict, event.Name)
	}
	if _, err := s.events.GetOpenRound(ctx, eventID); err == nil {
		return nil, fmt.Errorf("%w: previous round is not completed", league.ErrStateConflict)
	} else if !errors.Is(err, league.ErrNotFound) {
		return nil, err
	}

	proposal, err := s.propose(ctx, eventID, opts)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round := &league.Round{
		ID:      uuid.New(),
		EventID: eventID,
		Number:  event.CurrentRound + 1,
	}
	if err := s.events.CreateRound(ctx, tx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	matches := buildMatches(eventID, round.Number, proposal.Pairs)
	if err := s.events.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	event.CurrentRound = round.Number
	if err := s.events.UpdateEvent(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("failed to advance event round: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &RoundPairings{
		Round:           round,
		Matches:         matches,
		ByePlayerID:     proposal.ByePlayerID,
		ForcedRematches: proposal.ForcedRematches,
	}, nil
}

// ProjectPairings runs the generator without persisting anything, for the
// pairing preview.
func (s *EventService) ProjectPairings(ctx context.Context, eventID uuid.UUID, opts pairing.Options) (*pairing.Result, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.propose(ctx, eventID, opts)
}

func (s *EventService) propose(ctx context.Context, eventID uuid.UUID, opts pairing.Options) (*pairing.Result, error) {
	players, err := s.players.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	history, err := s.events.GetMatchesByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	return pairing.Generate(players, history, opts)
}

func buildMatches(eventID uuid.UUID, round int, pairs []pairing.Pair) []league.Match {
	matches := make([]league.Match, 0, len(pairs))
	for _, p := range pairs {
		m := league.Match{
			ID:          uuid.New(),
			EventID:     eventID,
			RoundNumber: round,
			Player1ID:   p.Player1.ID,
			Rating1:     p.Player1.Rating,
			Category1:   p.Player1.Category,
			IsBye:       p.IsBye,
			IsRematch:   p.IsRematch,
			State:       league.StatePending,
		}
		if p.IsBye {
			// Nothing to validate for a bye: it is authoritative on creation.
			m.State = league.StateValid
			m.Rating2 = p.Player1.Rating
			m.Category2 = p.Player1.Category
		} else {
			id := p.Player2.ID
			m.Player2ID = &id
			m.Rating2 = p.Player2.Rating
			m.Category2 = p.Player2.Category
		}
		matches = append(matches, m)
	}
	return matches
}

// PlayerChange summarizes one player's movement from a completed round.
type PlayerChange struct {
	PlayerID    uuid.UUID       `json:"playerId"`
	Name        string          `json:"name"`
	OldRating   int             `json:"oldRating"`
	NewRating   int             `json:"newRating"`
	OldCategory league.Category `json:"oldCategory"`
	NewCategory league.Category `json:"newCategory"`
}

type RoundSummary struct {
	Round   int            `json:"round"`
	Changes []PlayerChange `json:"changes"`
}

// CompleteRound applies every resolved match of the round to the player
// registry in one atomic batch and marks the round completed. All matches
// must be terminal; with force set, an administrator accepts each remaining
// match's lone claim as its resolution, and a match with no claim at all
// still blocks completion.
func (s *EventService) CompleteRound(ctx context.Context, eventID uuid.UUID, number int, force bool) (*RoundSummary, error) {
	round, err := s.events.GetRound(ctx, eventID, number)
	if err != nil {
		return nil, err
	}
	if round.Completed {
		return nil, fmt.Errorf("%w: round %d is already completed", league.ErrStateConflict, number)
	}

	matches, err := s.events.GetMatchesByRound(ctx, eventID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to load round matches: %w", err)
	}

	now := time.Now().UTC()
	var forced []*league.Match
	for i := range matches {
		m := &matches[i]
		if m.IsBye || m.State.Terminal() {
			continue
		}
		if !force {
			return nil, fmt.Errorf("%w: match %s is still %s", league.ErrStateConflict, m.ID, m.State)
		}
		claim := m.Claim(1)
		if claim == nil {
			claim = m.Claim(2)
		}
		if claim == nil {
			return nil, fmt.Errorf("%w: match %s has no claim to resolve", league.ErrStateConflict, m.ID)
		}
		if err := validation.Resolve(m, *claim, false, "forced on round completion", now); err != nil {
			return nil, err
		}
		forced = append(forced, m)
	}

	players, err := s.players.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	before := make(map[uuid.UUID]league.Player, len(players))
	for _, p := range players {
		before[p.ID] = p
	}

	registry := league.NewRegistry(players)
	entries, err := rating.ApplyResults(registry, matches, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, m := range forced {
		if err := s.events.UpdateMatch(ctx, tx, m); err != nil {
			return nil, fmt.Errorf("failed to store forced resolution: %w", err)
		}
	}
	if err := s.players.UpdatePlayers(ctx, tx, registry.Players()); err != nil {
		return nil, fmt.Errorf("failed to update players: %w", err)
	}
	if err := s.players.CreateHistoryEntries(ctx, tx, entries); err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	round.Completed = true
	round.CompletedAt = &now
	if err := s.events.CompleteRound(ctx, tx, round); err != nil {
		return nil, fmt.Errorf("failed to complete round: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	summary := &RoundSummary{Round: number}
	for _, p := range registry.Players() {
		old := before[p.ID]
		if old.Rating == p.Rating && old.Category == p.Category {
			continue
		}
		summary.Changes = append(summary.Changes, PlayerChange{
			PlayerID:    p.ID,
			Name:        p.Name,
			OldRating:   old.Rating,
			NewRating:   p.Rating,
			OldCategory: old.Category,
			NewCategory: p.Category,
		})
	}
	return summary, nil
}

// RankingRow is one line of an event ranking: match points first, then the
// accumulated score differential, then current rating.
type RankingRow struct {
	PlayerID uuid.UUID       `json:"playerId"`
	Name     string          `json:"name"`
	Category league.Category `json:"category"`
	Rating   int             `json:"rating"`
	Played   int             `json:"played"`
	TotalPR  int             `json:"totalPR"`
	TotalDS  int             `json:"totalDS"`
}

func (s *EventService) EventRanking(ctx context.Context, eventID uuid.UUID) ([]RankingRow, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	entries, err := s.players.GetEventHistory(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event history: %w", err)
	}
	players, err := s.players.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	byID := make(map[uuid.UUID]*RankingRow, len(players))
	for _, p := range players {
		byID[p.ID] = &RankingRow{PlayerID: p.ID, Name: p.Name, Category: p.Category, Rating: p.Rating}
	}
	for _, e := range entries {
		row, ok := byID[e.PlayerID]
		if !ok {
			continue
		}
		if e.Outcome != league.OutcomeBye {
			row.Played++
		}
		row.TotalPR += e.PR
		row.TotalDS += e.DS
	}

	rows := make([]RankingRow, 0, len(byID))
	for _, row := range byID {
		if row.Played == 0 {
			continue
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPR != rows[j].TotalPR {
			return rows[i].TotalPR > rows[j].TotalPR
		}
		if rows[i].TotalDS != rows[j].TotalDS {
			return rows[i].TotalDS > rows[j].TotalDS
		}
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].PlayerID.String() < rows[j].PlayerID.String()
	})
	return rows, nil
}

func (s *EventService) ListRounds(ctx context.Context, eventID uuid.UUID) ([]league.Round, error) {
	return s.events.ListRounds(ctx, eventID)
}

func (s *EventService) GetMatches(ctx context.Context, eventID uuid.UUID) ([]league.Match, error) {
	return s.events.GetMatchesByEvent(ctx, eventID)
}
