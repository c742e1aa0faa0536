package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/AdamBeresnev/league-app/internal/rating"
	"github.com/AdamBeresnev/league-app/internal/store"
	"github.com/AdamBeresnev/league-app/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PlayerService struct {
	db      *sqlx.DB
	players *store.PlayerStore
}

func NewPlayerService(db *sqlx.DB, players *store.PlayerStore) *PlayerService {
	return &PlayerService{db: db, players: players}
}

func (s *PlayerService) CreatePlayer(ctx context.Context, name, iscUsername string) (*league.Player, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", league.ErrStateConflict)
	}
	player := &league.Player{
		ID:          uuid.New(),
		Name:        name,
		ISCUsername: utils.StringOrNil(iscUsername),
		Rating:      rating.Floor,
		Category:    league.CategoryOf(rating.Floor),
	}
	if err := s.players.CreatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, id uuid.UUID) (*league.Player, error) {
	return s.players.GetPlayer(ctx, id)
}

func (s *PlayerService) ListPlayers(ctx context.Context) ([]league.Player, error) {
	return s.players.ListPlayers(ctx)
}

// RatingPoint is one step of a player's rating trajectory.
type RatingPoint struct {
	EventID uuid.UUID `json:"eventId"`
	Round   int       `json:"round"`
	Rating  int       `json:"rating"`
	Delta   int       `json:"delta"`
}

// CategoryTransition records a promotion or demotion.
type CategoryTransition struct {
	EventID uuid.UUID       `json:"eventId"`
	Round   int             `json:"round"`
	From    league.Category `json:"from"`
	To      league.Category `json:"to"`
}

type PlayerStatistics struct {
	Player      *league.Player       `json:"player"`
	Wins        int                  `json:"wins"`
	Draws       int                  `json:"draws"`
	Losses      int                  `json:"losses"`
	Byes        int                  `json:"byes"`
	TotalPR     int                  `json:"totalPR"`
	AverageDS   float64              `json:"averageDS"`
	History     []league.HistoryEntry `json:"history"`
	Trajectory  []RatingPoint        `json:"trajectory"`
	Transitions []CategoryTransition `json:"transitions"`
}

// GetStatistics assembles a player's history, rating trajectory, and
// category transitions from the stored history entries.
func (s *PlayerService) GetStatistics(ctx context.Context, playerID uuid.UUID) (*PlayerStatistics, error) {
	player, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	history, err := s.players.GetHistory(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	stats := &PlayerStatistics{Player: player, History: history}
	dsTotal := 0
	played := 0
	for _, e := range history {
		switch e.Outcome {
		case league.OutcomeWin:
			stats.Wins++
		case league.OutcomeDraw:
			stats.Draws++
		case league.OutcomeLoss:
			stats.Losses++
		case league.OutcomeBye:
			stats.Byes++
		}
		stats.TotalPR += e.PR
		if e.Outcome != league.OutcomeBye {
			dsTotal += e.DS
			played++
		}

		stats.Trajectory = append(stats.Trajectory, RatingPoint{
			EventID: e.EventID,
			Round:   e.RoundNumber,
			Rating:  e.RatingAfter,
			Delta:   e.RatingDelta,
		})
		if after := league.CategoryOf(e.RatingAfter); after != e.CategoryAtTime {
			stats.Transitions = append(stats.Transitions, CategoryTransition{
				EventID: e.EventID,
				Round:   e.RoundNumber,
				From:    e.CategoryAtTime,
				To:      after,
			})
		}
	}
	if played > 0 {
		stats.AverageDS = float64(dsTotal) / float64(played)
	}
	return stats, nil
}

type HeadToHead struct {
	PlayerID   uuid.UUID `json:"playerId"`
	OpponentID uuid.UUID `json:"opponentId"`
	Wins       int       `json:"wins"`
	Draws      int       `json:"draws"`
	Losses     int       `json:"losses"`
}

// GetHeadToHead tallies the record between two players across all events.
func (s *PlayerService) GetHeadToHead(ctx context.Context, playerID, opponentID uuid.UUID) (*HeadToHead, error) {
	if _, err := s.players.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	if _, err := s.players.GetPlayer(ctx, opponentID); err != nil {
		return nil, err
	}

	history, err := s.players.GetHistory(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	h2h := &HeadToHead{PlayerID: playerID, OpponentID: opponentID}
	for _, e := range history {
		if e.OpponentID == nil || *e.OpponentID != opponentID {
			continue
		}
		switch e.Outcome {
		case league.OutcomeWin:
			h2h.Wins++
		case league.OutcomeDraw:
			h2h.Draws++
		case league.OutcomeLoss:
			h2h.Losses++
		}
	}
	return h2h, nil
}
