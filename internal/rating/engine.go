package rating

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/google/uuid"
)

// ApplyResults applies every resolved match of a completed round to the
// registry and returns the history entries to persist alongside the updated
// players. The batch is all-or-nothing: every match is validated before any
// player is touched, so a failure leaves the registry untouched.
//
// Within a round no two matches share a player (the pairing generator
// guarantees it), so per-round match order is irrelevant.
func ApplyResults(reg *league.Registry, matches []league.Match, now time.Time) ([]league.HistoryEntry, error) {
	for i := range matches {
		if err := validate(reg, &matches[i]); err != nil {
			return nil, err
		}
	}

	var entries []league.HistoryEntry
	for i := range matches {
		m := &matches[i]
		if m.IsBye {
			entries = append(entries, applyBye(reg, m, now))
			continue
		}
		entries = append(entries, applyMatch(reg, m, now)...)
	}
	return entries, nil
}

func validate(reg *league.Registry, m *league.Match) error {
	if m.IsBye {
		if _, ok := reg.Get(m.Player1ID); !ok {
			return &league.InvalidResultError{MatchID: m.ID, Reason: fmt.Sprintf("player %s not in registry", m.Player1ID)}
		}
		return nil
	}
	if !m.State.Terminal() {
		return &league.InvalidResultError{MatchID: m.ID, Reason: "match is not in a terminal state"}
	}
	if m.Result() == nil {
		return &league.InvalidResultError{MatchID: m.ID, Reason: "terminal match has no winner or draw designation"}
	}
	if m.Player2ID == nil {
		return &league.InvalidResultError{MatchID: m.ID, Reason: "non-bye match is missing its second player"}
	}
	if _, ok := reg.Get(m.Player1ID); !ok {
		return &league.InvalidResultError{MatchID: m.ID, Reason: fmt.Sprintf("player %s not in registry", m.Player1ID)}
	}
	if _, ok := reg.Get(*m.Player2ID); !ok {
		return &league.InvalidResultError{MatchID: m.ID, Reason: fmt.Sprintf("player %s not in registry", *m.Player2ID)}
	}
	return nil
}

func applyBye(reg *league.Registry, m *league.Match, now time.Time) league.HistoryEntry {
	p, _ := reg.Get(m.Player1ID)
	p.Byes++
	return league.HistoryEntry{
		ID:             uuid.New(),
		PlayerID:       p.ID,
		MatchID:        m.ID,
		EventID:        m.EventID,
		RoundNumber:    m.RoundNumber,
		Outcome:        league.OutcomeBye,
		RatingDelta:    0,
		RatingAfter:    p.Rating,
		CategoryAtTime: p.Category,
		CreatedAt:      now,
	}
}

func applyMatch(reg *league.Registry, m *league.Match, now time.Time) []league.HistoryEntry {
	score := *m.Result()

	p1, _ := reg.Get(m.Player1ID)
	p2, _ := reg.Get(*m.Player2ID)

	// Deltas are computed from the ratings frozen at pairing time; within a
	// round they match the registry values since no player appears twice.
	d1, d2 := Deltas(m.Rating1, p1.MatchesPlayed, m.Rating2, p2.MatchesPlayed, score)

	e1 := historyFor(p1, m, score, 1, d1, now)
	e2 := historyFor(p2, m, score, 2, d2, now)

	p1.Rating = Apply(p1.Rating, d1)
	p2.Rating = Apply(p2.Rating, d2)
	p1.Category = league.CategoryOf(p1.Rating)
	p2.Category = league.CategoryOf(p2.Rating)
	p1.MatchesPlayed++
	p2.MatchesPlayed++

	e1.RatingAfter = p1.Rating
	e2.RatingAfter = p2.Rating
	return []league.HistoryEntry{e1, e2}
}

func historyFor(p *league.Player, m *league.Match, score league.Score, slot, delta int, now time.Time) league.HistoryEntry {
	outcome := league.OutcomeDraw
	if w := score.WinnerSlot(); w == slot {
		outcome = league.OutcomeWin
	} else if w != 0 {
		outcome = league.OutcomeLoss
	}

	opponent := m.Player1ID
	if slot == 1 {
		opponent = *m.Player2ID
	}

	return league.HistoryEntry{
		ID:             uuid.New(),
		PlayerID:       p.ID,
		MatchID:        m.ID,
		EventID:        m.EventID,
		RoundNumber:    m.RoundNumber,
		OpponentID:     &opponent,
		Outcome:        outcome,
		RatingDelta:    delta,
		CategoryAtTime: p.Category,
		PR:             score.PR(slot),
		DS:             score.DS(),
		CreatedAt:      now,
	}
}
