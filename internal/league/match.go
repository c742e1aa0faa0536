package league

import (
	"time"

	"github.com/google/uuid"
)

type ValidationState string

const (
	StatePending        ValidationState = "pending"
	StatePartiallyValid ValidationState = "partially_valid"
	StateValid          ValidationState = "valid"
	StateDisputed       ValidationState = "disputed"
	StateAdminValidated ValidationState = "admin_validated"
	StateAutoValidated  ValidationState = "auto_validated"
)

// Terminal reports whether the state carries an authoritative, immutable
// result. Disputed matches are not terminal; they wait for an administrator.
func (s ValidationState) Terminal() bool {
	switch s {
	case StateValid, StateAdminValidated, StateAutoValidated:
		return true
	}
	return false
}

// Score is a claimed or authoritative result, always expressed from the
// match's slot order: Player1 scored P1, Player2 scored P2.
type Score struct {
	P1 int
	P2 int
}

func (s Score) Draw() bool { return s.P1 == s.P2 }

// WinnerSlot returns 1 or 2, or 0 for a draw.
func (s Score) WinnerSlot() int {
	switch {
	case s.P1 > s.P2:
		return 1
	case s.P2 > s.P1:
		return 2
	}
	return 0
}

// PR is the match points awarded to the given slot: 3 win, 1 draw, 0 loss.
func (s Score) PR(slot int) int {
	w := s.WinnerSlot()
	if w == 0 {
		return 1
	}
	if w == slot {
		return 3
	}
	return 0
}

// PDI is the normalized internal score differential in [0,1].
func (s Score) PDI() float64 {
	total := s.P1 + s.P2
	if total == 0 {
		return 0
	}
	diff := s.P1 - s.P2
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(total)
}

// DS maps the differential to a 0-100 scale, saturating at a PDI of 0.8.
func (s Score) DS() int {
	pdi := s.PDI()
	if pdi >= 0.8 {
		return 100
	}
	return int(pdi * 100)
}

// Match is one pairing within a round. Rating and category fields are frozen
// copies taken at pairing time and are never updated afterwards; the current
// values live on the Player records.
type Match struct {
	ID          uuid.UUID `db:"id"`
	EventID     uuid.UUID `db:"event_id"`
	RoundNumber int       `db:"round_number"`

	Player1ID uuid.UUID  `db:"player_1_id"`
	Player2ID *uuid.UUID `db:"player_2_id"`

	Rating1   int      `db:"rating_1"`
	Rating2   int      `db:"rating_2"`
	Category1 Category `db:"category_1"`
	Category2 Category `db:"category_2"`

	IsBye     bool `db:"is_bye"`
	IsRematch bool `db:"is_rematch"`

	State ValidationState `db:"state"`

	Claim1P1 *int       `db:"claim_1_p1"`
	Claim1P2 *int       `db:"claim_1_p2"`
	Claim1At *time.Time `db:"claim_1_at"`
	Claim2P1 *int       `db:"claim_2_p1"`
	Claim2P2 *int       `db:"claim_2_p2"`
	Claim2At *time.Time `db:"claim_2_at"`

	DisputeReason *string `db:"dispute_reason"`

	ResultP1      *int       `db:"result_p1"`
	ResultP2      *int       `db:"result_p2"`
	ResultForfeit bool       `db:"result_forfeit"`
	ResolvedAt    *time.Time `db:"resolved_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Claim returns the score claimed by the given slot, or nil if that side has
// not submitted.
func (m *Match) Claim(slot int) *Score {
	switch slot {
	case 1:
		if m.Claim1P1 == nil || m.Claim1P2 == nil {
			return nil
		}
		return &Score{P1: *m.Claim1P1, P2: *m.Claim1P2}
	case 2:
		if m.Claim2P1 == nil || m.Claim2P2 == nil {
			return nil
		}
		return &Score{P1: *m.Claim2P1, P2: *m.Claim2P2}
	}
	return nil
}

func (m *Match) SetClaim(slot int, s Score, at time.Time) {
	p1, p2 := s.P1, s.P2
	switch slot {
	case 1:
		m.Claim1P1, m.Claim1P2, m.Claim1At = &p1, &p2, &at
	case 2:
		m.Claim2P1, m.Claim2P2, m.Claim2At = &p1, &p2, &at
	}
}

// Result returns the authoritative score once the match is terminal.
func (m *Match) Result() *Score {
	if m.ResultP1 == nil || m.ResultP2 == nil {
		return nil
	}
	return &Score{P1: *m.ResultP1, P2: *m.ResultP2}
}

func (m *Match) SetResult(s Score, at time.Time) {
	p1, p2 := s.P1, s.P2
	m.ResultP1, m.ResultP2 = &p1, &p2
	m.ResolvedAt = &at
}

// SlotOf returns 1 or 2 for the given participant, or 0 when the player is
// not part of this match.
func (m *Match) SlotOf(playerID uuid.UUID) int {
	if m.Player1ID == playerID {
		return 1
	}
	if m.Player2ID != nil && *m.Player2ID == playerID {
		return 2
	}
	return 0
}
