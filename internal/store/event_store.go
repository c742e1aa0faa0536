package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type EventStore struct {
	db *sqlx.DB
}

const (
	createEventQuery = `
		INSERT INTO events (id, name, status, current_round)
		VALUES (:id, :name, :status, :current_round)
	`
	updateEventQuery = `
		UPDATE events SET status = :status, current_round = :current_round WHERE id = :id
	`
	createRoundQuery = `
		INSERT INTO rounds (id, event_id, number, completed)
		VALUES (:id, :event_id, :number, :completed)
	`
	completeRoundQuery = `
		UPDATE rounds SET completed = 1, completed_at = :completed_at WHERE id = :id
	`
	createMatchQuery = `
		INSERT INTO matches (id, event_id, round_number, player_1_id, player_2_id,
			rating_1, rating_2, category_1, category_2, is_bye, is_rematch, state)
		VALUES (:id, :event_id, :round_number, :player_1_id, :player_2_id,
			:rating_1, :rating_2, :category_1, :category_2, :is_bye, :is_rematch, :state)
	`
	updateMatchQuery = `
		UPDATE matches SET
			state = :state,
			claim_1_p1 = :claim_1_p1, claim_1_p2 = :claim_1_p2, claim_1_at = :claim_1_at,
			claim_2_p1 = :claim_2_p1, claim_2_p2 = :claim_2_p2, claim_2_at = :claim_2_at,
			dispute_reason = :dispute_reason,
			result_p1 = :result_p1, result_p2 = :result_p2,
			result_forfeit = :result_forfeit, resolved_at = :resolved_at,
			updated_at = :updated_at
		WHERE id = :id
	`
)

func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) CreateEvent(ctx context.Context, e *league.Event) error {
	_, err := s.db.NamedExecContext(ctx, createEventQuery, e)
	return err
}

func (s *EventStore) GetEvent(ctx context.Context, id uuid.UUID) (*league.Event, error) {
	var e league.Event
	err := s.db.GetContext(ctx, &e, "SELECT * FROM events WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EventStore) ListEvents(ctx context.Context) ([]league.Event, error) {
	var events []league.Event
	err := s.db.SelectContext(ctx, &events, "SELECT * FROM events ORDER BY created_at DESC")
	return events, err
}

func (s *EventStore) UpdateEvent(ctx context.Context, tx *sqlx.Tx, e *league.Event) error {
	_, err := tx.NamedExecContext(ctx, updateEventQuery, e)
	return err
}

func (s *EventStore) CreateRound(ctx context.Context, tx *sqlx.Tx, r *league.Round) error {
	_, err := tx.NamedExecContext(ctx, createRoundQuery, r)
	return err
}

func (s *EventStore) GetRound(ctx context.Context, eventID uuid.UUID, number int) (*league.Round, error) {
	var r league.Round
	err := s.db.GetContext(ctx, &r, "SELECT * FROM rounds WHERE event_id = ? AND number = ?", eventID, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetOpenRound returns the event's incomplete round, or ErrNotFound when
// every round has been completed. At most one round is open per event.
func (s *EventStore) GetOpenRound(ctx context.Context, eventID uuid.UUID) (*league.Round, error) {
	var r league.Round
	err := s.db.GetContext(ctx, &r,
		"SELECT * FROM rounds WHERE event_id = ? AND completed = 0 ORDER BY number DESC LIMIT 1", eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *EventStore) ListRounds(ctx context.Context, eventID uuid.UUID) ([]league.Round, error) {
	var rounds []league.Round
	err := s.db.SelectContext(ctx, &rounds, "SELECT * FROM rounds WHERE event_id = ? ORDER BY number ASC", eventID)
	return rounds, err
}

func (s *EventStore) CompleteRound(ctx context.Context, tx *sqlx.Tx, r *league.Round) error {
	_, err := tx.NamedExecContext(ctx, completeRoundQuery, r)
	return err
}

func (s *EventStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []league.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createMatchQuery, matches)
	return err
}

func (s *EventStore) GetMatch(ctx context.Context, id uuid.UUID) (*league.Match, error) {
	var m league.Match
	err := s.db.GetContext(ctx, &m, "SELECT * FROM matches WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *EventStore) GetMatchesByEvent(ctx context.Context, eventID uuid.UUID) ([]league.Match, error) {
	var matches []league.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE event_id = ? ORDER BY round_number ASC, id ASC", eventID)
	return matches, err
}

func (s *EventStore) GetMatchesByRound(ctx context.Context, eventID uuid.UUID, round int) ([]league.Match, error) {
	var matches []league.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE event_id = ? AND round_number = ? ORDER BY id ASC", eventID, round)
	return matches, err
}

// GetAwaitingMatches lists an event's non-bye matches that still need
// submissions, for the result-provider sweep.
func (s *EventStore) GetAwaitingMatches(ctx context.Context, eventID uuid.UUID) ([]league.Match, error) {
	var matches []league.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE event_id = ? AND is_bye = 0 AND state IN (?, ?) ORDER BY id ASC",
		eventID, league.StatePending, league.StatePartiallyValid)
	return matches, err
}

// GetPartiallyValidMatches lists every match eligible for the timeout sweep,
// across all events.
func (s *EventStore) GetPartiallyValidMatches(ctx context.Context) ([]league.Match, error) {
	var matches []league.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE state = ? ORDER BY id ASC", league.StatePartiallyValid)
	return matches, err
}

func (s *EventStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, m *league.Match) error {
	_, err := tx.NamedExecContext(ctx, updateMatchQuery, m)
	return err
}
