package pairing

import (
	"sort"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/google/uuid"
)

type Options struct {
	AvoidRematches    bool
	BalanceCategories bool
}

// DefaultOptions matches the behaviour of an unqualified generation request.
func DefaultOptions() Options {
	return Options{AvoidRematches: true, BalanceCategories: true}
}

// Pair is one proposed match. Player2 is nil for the bye assignment.
type Pair struct {
	Player1   league.Player
	Player2   *league.Player
	IsBye     bool
	IsRematch bool
}

type Result struct {
	Pairs           []Pair
	ByePlayerID     *uuid.UUID
	ForcedRematches int
}

// Generate proposes one round of pairings for the eligible players. It is a
// pure function: the caller persists the proposed matches. Output is
// deterministic for identical inputs; every tie is broken by ascending
// player id, never by map iteration order.
func Generate(players []league.Player, history []league.Match, opts Options) (*Result, error) {
	if len(players) < 2 {
		return nil, &league.ConstraintViolationError{
			Reason:  "at least 2 eligible players are required",
			Players: playerIDs(players),
		}
	}

	pool := make([]league.Player, len(players))
	copy(pool, players)
	sort.Slice(pool, func(i, j int) bool {
		return pool[i].ID.String() < pool[j].ID.String()
	})

	played := playedPairs(history)
	eventByes := byeCounts(history)

	result := &Result{}

	if len(pool)%2 != 0 {
		bye := selectBye(pool, eventByes)
		result.ByePlayerID = &pool[bye].ID
		result.Pairs = append(result.Pairs, Pair{Player1: pool[bye], IsBye: true})
		pool = append(pool[:bye], pool[bye+1:]...)
	}

	pools := [][]league.Player{pool}
	if opts.BalanceCategories {
		pools = partitionByCategory(pool)
	}

	for _, group := range pools {
		pairs, forced := pairPool(group, played, opts.AvoidRematches)
		result.Pairs = append(result.Pairs, pairs...)
		result.ForcedRematches += forced
	}

	return result, nil
}

func playerIDs(players []league.Player) []uuid.UUID {
	ids := make([]uuid.UUID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

type pairKey struct{ lo, hi string }

func keyFor(a, b uuid.UUID) pairKey {
	lo, hi := a.String(), b.String()
	if lo > hi {
		lo, hi = hi, lo
	}
	return pairKey{lo, hi}
}

func playedPairs(history []league.Match) map[pairKey]bool {
	played := make(map[pairKey]bool)
	for i := range history {
		m := &history[i]
		if m.IsBye || m.Player2ID == nil {
			continue
		}
		played[keyFor(m.Player1ID, *m.Player2ID)] = true
	}
	return played
}

func byeCounts(history []league.Match) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for i := range history {
		if history[i].IsBye {
			counts[history[i].Player1ID]++
		}
	}
	return counts
}

// selectBye picks the index of the bye recipient from an id-sorted pool:
// first a player with no bye this event, then fewest career byes, then the
// lowest id (the sort order already provides the final tie-break).
func selectBye(pool []league.Player, eventByes map[uuid.UUID]int) int {
	best := 0
	for i := 1; i < len(pool); i++ {
		if byeLess(pool[i], pool[best], eventByes) {
			best = i
		}
	}
	return best
}

func byeLess(a, b league.Player, eventByes map[uuid.UUID]int) bool {
	if eventByes[a.ID] != eventByes[b.ID] {
		return eventByes[a.ID] < eventByes[b.ID]
	}
	if a.Byes != b.Byes {
		return a.Byes < b.Byes
	}
	return false // equal priority keeps the earlier (lower) id
}

// partitionByCategory splits the id-sorted pool into per-tier pools,
// processed from the top tier down. A tier with an odd remainder carries its
// lowest-rated player into the adjacent lower tier so that pairing stays as
// even-skilled as possible.
func partitionByCategory(pool []league.Player) [][]league.Player {
	tiers := league.Categories()
	byTier := make(map[league.Category][]league.Player, len(tiers))
	for _, p := range pool {
		byTier[p.Category] = append(byTier[p.Category], p)
	}

	var pools [][]league.Player
	var carry []league.Player
	for i := len(tiers) - 1; i >= 0; i-- {
		group := append(carry, byTier[tiers[i]]...)
		carry = nil
		if len(group) == 0 {
			continue
		}
		if len(group)%2 != 0 && i > 0 {
			drop := lowestRated(group)
			carry = []league.Player{group[drop]}
			group = append(group[:drop:drop], group[drop+1:]...)
		}
		if len(group) > 0 {
			pools = append(pools, group)
		}
	}
	return pools
}

func lowestRated(group []league.Player) int {
	best := 0
	for i := 1; i < len(group); i++ {
		if group[i].Rating < group[best].Rating ||
			(group[i].Rating == group[best].Rating && group[i].ID.String() < group[best].ID.String()) {
			best = i
		}
	}
	return best
}

// pairPool finds a perfect matching of the pool that minimizes forced
// rematches (zero when a rematch-free matching exists). Candidates are
// explored in ascending id order so the first optimal matching found is
// stable across runs. League pools are small, so the exhaustive search is
// cheap; it stops as soon as a rematch-free matching is complete.
func pairPool(pool []league.Player, played map[pairKey]bool, avoidRematches bool) ([]Pair, int) {
	if len(pool) == 0 {
		return nil, 0
	}
	sort.Slice(pool, func(i, j int) bool {
		return pool[i].ID.String() < pool[j].ID.String()
	})

	if !avoidRematches {
		pairs := make([]Pair, 0, len(pool)/2)
		for i := 0; i+1 < len(pool); i += 2 {
			p2 := pool[i+1]
			pairs = append(pairs, Pair{
				Player1:   pool[i],
				Player2:   &p2,
				IsRematch: played[keyFor(pool[i].ID, p2.ID)],
			})
		}
		return pairs, 0
	}

	n := len(pool)
	used := make([]bool, n)
	current := make([][2]int, 0, n/2)
	best := make([][2]int, 0, n/2)
	bestForced := n // upper bound, any matching beats it

	var search func(forced int)
	search = func(forced int) {
		if forced >= bestForced {
			return
		}
		first := -1
		for i := 0; i < n; i++ {
			if !used[i] {
				first = i
				break
			}
		}
		if first == -1 {
			bestForced = forced
			best = append(best[:0], current...)
			return
		}
		used[first] = true
		for j := first + 1; j < n; j++ {
			if used[j] {
				continue
			}
			rematch := 0
			if played[keyFor(pool[first].ID, pool[j].ID)] {
				rematch = 1
			}
			used[j] = true
			current = append(current, [2]int{first, j})
			search(forced + rematch)
			current = current[:len(current)-1]
			used[j] = false
			if bestForced == 0 {
				break
			}
		}
		used[first] = false
	}
	search(0)

	pairs := make([]Pair, 0, len(best))
	for _, idx := range best {
		p2 := pool[idx[1]]
		pairs = append(pairs, Pair{
			Player1:   pool[idx[0]],
			Player2:   &p2,
			IsRematch: played[keyFor(pool[idx[0]].ID, p2.ID)],
		})
	}
	return pairs, bestForced
}
