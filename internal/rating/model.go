package rating

import (
	"math"

	"github.com/AdamBeresnev/league-app/internal/league"
)

const (
	// Ratings never drop below the floor, which is also the seed rating
	// for new players.
	Floor = 1000

	divider = 400

	kProvisional = 30
	kEstablished = 20
	kExpert      = 10

	// Players with at most this many career matches use the provisional
	// K-factor regardless of rating.
	provisionalMatches = 30
	expertRating       = 1700
)

// ExpectedScore is the standard Elo win expectancy of a player against an
// opponent.
func ExpectedScore(playerRating, opponentRating int) float64 {
	exponent := float64(opponentRating-playerRating) / divider
	return 1 / (1 + math.Pow(10, exponent))
}

// KFactor picks the per-player adjustment speed: provisional players move
// fastest, established experts slowest.
func KFactor(playerRating, matchesPlayed int) int {
	if matchesPlayed <= provisionalMatches {
		return kProvisional
	}
	if playerRating >= expertRating {
		return kExpert
	}
	return kEstablished
}

// Deltas computes the rating change for both slots of a decisive or drawn
// match. The match uses the larger of the two players' K-factors so that the
// loser's delta is the exact negation of the winner's; the magnitude is
// therefore bounded by the largest K. Byes never reach this function.
func Deltas(rating1, matches1, rating2, matches2 int, score league.Score) (int, int) {
	k := KFactor(rating1, matches1)
	if k2 := KFactor(rating2, matches2); k2 > k {
		k = k2
	}

	e1 := ExpectedScore(rating1, rating2)

	var s1 float64
	switch score.WinnerSlot() {
	case 1:
		s1 = 1
	case 2:
		s1 = 0
	default:
		s1 = 0.5
	}

	d1 := int(math.Round(float64(k) * (s1 - e1)))
	return d1, -d1
}

// Apply adds a delta to a rating, clamping at the floor.
func Apply(rating, delta int) int {
	next := rating + delta
	if next < Floor {
		return Floor
	}
	return next
}
