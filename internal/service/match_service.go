package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/AdamBeresnev/league-app/internal/store"
	"github.com/AdamBeresnev/league-app/internal/validation"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// matchLocks serializes writes per match id. The validation state machine
// assumes single-writer access to a match; submissions for different matches
// stay independent.
type matchLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newMatchLocks() *matchLocks {
	return &matchLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *matchLocks) acquire(id uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

type MatchService struct {
	db      *sqlx.DB
	events  *store.EventStore
	locks   *matchLocks
	timeout time.Duration
}

// NewMatchService wires the submission paths. A zero timeout disables
// auto-validation, leaving stalled matches to administrator resolution.
func NewMatchService(db *sqlx.DB, events *store.EventStore, timeout time.Duration) *MatchService {
	return &MatchService{db: db, events: events, locks: newMatchLocks(), timeout: timeout}
}

func (s *MatchService) GetMatch(ctx context.Context, id uuid.UUID) (*league.Match, error) {
	return s.events.GetMatch(ctx, id)
}

// SubmitResult records one participant's claimed score for their match.
func (s *MatchService) SubmitResult(ctx context.Context, matchID, playerID uuid.UUID, score league.Score) (*league.Match, error) {
	release := s.locks.acquire(matchID)
	defer release()

	m, err := s.events.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	slot := m.SlotOf(playerID)
	if slot == 0 {
		return nil, fmt.Errorf("%w: player %s is not part of match %s", league.ErrNotFound, playerID, matchID)
	}

	if err := validation.Submit(m, slot, score, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.saveMatch(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ResolveDispute records an administrator's authoritative result for a
// disputed or stalled match. Caller authorization happens at the edge.
func (s *MatchService) ResolveDispute(ctx context.Context, matchID uuid.UUID, score league.Score, forfeit bool, reason string) (*league.Match, error) {
	release := s.locks.acquire(matchID)
	defer release()

	m, err := s.events.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := validation.Resolve(m, score, forfeit, reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.saveMatch(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CheckTimeouts sweeps every partially valid match and auto-validates those
// whose lone claim is older than the configured timeout. The sweep is
// idempotent and runs off an external trigger (cron or admin), never an
// in-process timer.
func (s *MatchService) CheckTimeouts(ctx context.Context, now time.Time) ([]league.Match, error) {
	if s.timeout <= 0 {
		return nil, nil
	}

	candidates, err := s.events.GetPartiallyValidMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate matches: %w", err)
	}

	var expired []league.Match
	for i := range candidates {
		m, err := s.expireOne(ctx, candidates[i].ID, now)
		if err != nil {
			return expired, err
		}
		if m != nil {
			expired = append(expired, *m)
		}
	}
	return expired, nil
}

func (s *MatchService) expireOne(ctx context.Context, id uuid.UUID, now time.Time) (*league.Match, error) {
	release := s.locks.acquire(id)
	defer release()

	// Re-read under the lock: a submission may have landed since the
	// candidate list was taken.
	m, err := s.events.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	transitioned, err := validation.ExpireTimeout(m, s.timeout, now)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return nil, nil
	}
	if err := s.saveMatch(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MatchService) saveMatch(ctx context.Context, m *league.Match) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.events.UpdateMatch(ctx, tx, m); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return tx.Commit()
}
