package league

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Player struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	ISCUsername   *string   `db:"isc_username"`
	Rating        int       `db:"rating"`
	Category      Category  `db:"category"`
	MatchesPlayed int       `db:"matches_played"`
	Byes          int       `db:"byes"`
	CreatedAt     time.Time `db:"created_at"`
}

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
	OutcomeLoss Outcome = "loss"
	OutcomeBye  Outcome = "bye"
)

// HistoryEntry is one line of a player's match history, appended when a
// round's results are applied. CategoryAtTime is the category held before
// that application.
type HistoryEntry struct {
	ID             uuid.UUID  `db:"id"`
	PlayerID       uuid.UUID  `db:"player_id"`
	MatchID        uuid.UUID  `db:"match_id"`
	EventID        uuid.UUID  `db:"event_id"`
	RoundNumber    int        `db:"round_number"`
	OpponentID     *uuid.UUID `db:"opponent_id"`
	Outcome        Outcome    `db:"outcome"`
	RatingDelta    int        `db:"rating_delta"`
	RatingAfter    int        `db:"rating_after"`
	CategoryAtTime Category   `db:"category_at_time"`
	PR             int        `db:"pr"`
	DS             int        `db:"ds"`
	CreatedAt      time.Time  `db:"created_at"`
}

// Registry is an in-memory snapshot of the player pool. The service layer
// loads it from storage, the rating engine mutates it, and the updated
// players are written back in one transaction.
type Registry struct {
	players map[uuid.UUID]*Player
}

func NewRegistry(players []Player) *Registry {
	m := make(map[uuid.UUID]*Player, len(players))
	for i := range players {
		p := players[i]
		m[p.ID] = &p
	}
	return &Registry{players: m}
}

func (r *Registry) Get(id uuid.UUID) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Players returns all players ordered by ascending id, so that callers
// iterating the registry stay deterministic.
func (r *Registry) Players() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *Registry) Len() int {
	return len(r.players)
}
