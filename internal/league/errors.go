package league

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors shared across services and mapped to HTTP statuses at the
// edge.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Write attempted on a match whose result is already authoritative.
	ErrMatchFinalized = errors.New("match result is already finalized")

	// Operation does not fit the current event/round/match state, e.g.
	// completing a round with non-terminal matches outstanding.
	ErrStateConflict = errors.New("operation conflicts with current state")
)

// ConstraintViolationError reports a pairing run that could not satisfy its
// constraints. Players lists the ids that could not be paired so the caller
// can intervene manually.
type ConstraintViolationError struct {
	Reason  string
	Players []uuid.UUID
}

func (e *ConstraintViolationError) Error() string {
	if len(e.Players) == 0 {
		return "pairing constraint violation: " + e.Reason
	}
	ids := make([]string, len(e.Players))
	for i, id := range e.Players {
		ids[i] = id.String()
	}
	return fmt.Sprintf("pairing constraint violation: %s (players: %s)", e.Reason, strings.Join(ids, ", "))
}

// InvalidResultError rejects a whole round-update batch because one resolved
// match is unusable. Applying a partial batch would leave the registry
// inconsistent.
type InvalidResultError struct {
	MatchID uuid.UUID
	Reason  string
}

func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("invalid result for match %s: %s", e.MatchID, e.Reason)
}
