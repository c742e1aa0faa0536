// Package validation implements the result lifecycle of a match as a closed
// state machine. All writes to a match's validation fields flow through it;
// player ratings are never touched here.
package validation

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/league-app/internal/league"
)

type event int

const (
	eventSubmit event = iota
	eventAdminResolve
	eventTimeout
)

// allowed is the explicit transition table: which events each state accepts.
// The resulting state for a submission depends on the claims, which apply()
// resolves; anything absent here is rejected outright.
var allowed = map[league.ValidationState]map[event]bool{
	league.StatePending: {
		eventSubmit:       true,
		eventAdminResolve: true,
	},
	league.StatePartiallyValid: {
		eventSubmit:       true,
		eventAdminResolve: true,
		eventTimeout:      true,
	},
	league.StateDisputed: {
		eventSubmit:       true,
		eventAdminResolve: true,
	},
}

func accepts(state league.ValidationState, ev event) error {
	if state.Terminal() {
		return league.ErrMatchFinalized
	}
	if !allowed[state][ev] {
		return fmt.Errorf("%w: state %q does not accept this event", league.ErrStateConflict, state)
	}
	return nil
}

// Submit records one side's claimed score. Resubmission by the same side
// replaces its earlier claim while the match is non-terminal. Once both
// sides have submitted, agreement moves the match to valid and disagreement
// to disputed, with both claims retained.
func Submit(m *league.Match, slot int, score league.Score, now time.Time) error {
	if err := accepts(m.State, eventSubmit); err != nil {
		return err
	}
	if slot != 1 && slot != 2 {
		return fmt.Errorf("%w: invalid submitter slot %d", league.ErrStateConflict, slot)
	}
	if m.IsBye {
		return fmt.Errorf("%w: bye matches take no submissions", league.ErrStateConflict)
	}
	if score.P1 < 0 || score.P2 < 0 {
		return &league.InvalidResultError{MatchID: m.ID, Reason: "scores cannot be negative"}
	}

	m.SetClaim(slot, score, now)
	m.UpdatedAt = now

	claim1, claim2 := m.Claim(1), m.Claim(2)
	switch {
	case claim1 == nil || claim2 == nil:
		m.State = league.StatePartiallyValid
	case *claim1 == *claim2:
		m.State = league.StateValid
		m.SetResult(*claim1, now)
	default:
		m.State = league.StateDisputed
	}
	return nil
}

// Resolve records an administrator's authoritative result for any
// non-terminal match. Conflicting claims stay on the record for audit.
func Resolve(m *league.Match, score league.Score, forfeit bool, reason string, now time.Time) error {
	if err := accepts(m.State, eventAdminResolve); err != nil {
		return err
	}
	if m.IsBye {
		return fmt.Errorf("%w: bye matches need no resolution", league.ErrStateConflict)
	}
	if score.P1 < 0 || score.P2 < 0 {
		return &league.InvalidResultError{MatchID: m.ID, Reason: "scores cannot be negative"}
	}
	if forfeit && score.Draw() {
		return &league.InvalidResultError{MatchID: m.ID, Reason: "a forfeit needs a winner"}
	}

	m.State = league.StateAdminValidated
	m.SetResult(score, now)
	m.ResultForfeit = forfeit
	if reason != "" {
		m.DisputeReason = &reason
	}
	m.UpdatedAt = now
	return nil
}

// ExpireTimeout auto-validates a partially valid match whose lone claim is
// older than the configured timeout, accepting that claim as authoritative.
// It reports whether the match transitioned. A zero timeout disables
// auto-validation entirely.
func ExpireTimeout(m *league.Match, timeout time.Duration, now time.Time) (bool, error) {
	if timeout <= 0 {
		return false, nil
	}
	if m.State != league.StatePartiallyValid {
		return false, nil
	}
	if err := accepts(m.State, eventTimeout); err != nil {
		return false, err
	}

	claim, at := m.Claim(1), m.Claim1At
	if claim == nil {
		claim, at = m.Claim(2), m.Claim2At
	}
	if claim == nil || at == nil {
		return false, fmt.Errorf("%w: partially valid match has no claim", league.ErrStateConflict)
	}
	if now.Sub(*at) < timeout {
		return false, nil
	}

	m.State = league.StateAutoValidated
	m.SetResult(*claim, now)
	m.UpdatedAt = now
	return true, nil
}
