package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PlayerStore struct {
	db *sqlx.DB
}

const (
	createPlayerQuery = `
		INSERT INTO players (id, name, isc_username, rating, category, matches_played, byes)
		VALUES (:id, :name, :isc_username, :rating, :category, :matches_played, :byes)
	`
	updatePlayerQuery = `
		UPDATE players SET
			rating = :rating,
			category = :category,
			matches_played = :matches_played,
			byes = :byes
		WHERE id = :id
	`
	createHistoryQuery = `
		INSERT INTO player_history (id, player_id, match_id, event_id, round_number, opponent_id,
			outcome, rating_delta, rating_after, category_at_time, pr, ds, created_at)
		VALUES (:id, :player_id, :match_id, :event_id, :round_number, :opponent_id,
			:outcome, :rating_delta, :rating_after, :category_at_time, :pr, :ds, :created_at)
	`
)

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, p *league.Player) error {
	_, err := s.db.NamedExecContext(ctx, createPlayerQuery, p)
	return err
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*league.Player, error) {
	var p league.Player
	err := s.db.GetContext(ctx, &p, "SELECT * FROM players WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlayerStore) ListPlayers(ctx context.Context) ([]league.Player, error) {
	var players []league.Player
	err := s.db.SelectContext(ctx, &players, "SELECT * FROM players ORDER BY id ASC")
	return players, err
}

// UpdatePlayers writes the registry changes of a completed round inside the
// caller's transaction so that readers never see a half-applied round.
func (s *PlayerStore) UpdatePlayers(ctx context.Context, tx *sqlx.Tx, players []*league.Player) error {
	for _, p := range players {
		if _, err := tx.NamedExecContext(ctx, updatePlayerQuery, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *PlayerStore) CreateHistoryEntries(ctx context.Context, tx *sqlx.Tx, entries []league.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createHistoryQuery, entries)
	return err
}

func (s *PlayerStore) GetHistory(ctx context.Context, playerID uuid.UUID) ([]league.HistoryEntry, error) {
	var entries []league.HistoryEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM player_history WHERE player_id = ? ORDER BY created_at ASC, round_number ASC", playerID)
	return entries, err
}

func (s *PlayerStore) GetEventHistory(ctx context.Context, eventID uuid.UUID) ([]league.HistoryEntry, error) {
	var entries []league.HistoryEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM player_history WHERE event_id = ? ORDER BY round_number ASC, created_at ASC", eventID)
	return entries, err
}
