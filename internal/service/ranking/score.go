package ranking

import (
	"sort"
	"time"

	"github.com/oggyb/crushconnect/internal/db"
)

// Score weights. Vibe is on a 0–100 scale, overlap is a raw count,
// recency and liked-you are 0–1.
const (
	WeightVibe     = 0.45
	WeightOverlap  = 0.25
	WeightRecency  = 0.20
	WeightLikedYou = 0.10

	// SinglePassPenalty multiplies the score of a candidate passed once in the window.
	SinglePassPenalty = 0.5

	// RecencyHorizon is where recency reaches zero.
	RecencyHorizon = 30 * 24 * time.Hour

	neutralVibe = 50
	vibeCeiling = 95
	vibeFloor   = 10
)

// VibeCompatibility returns the share of common traits answered the same way,
// as a percentage. Perfect agreement reports 95 and none reports 10; an empty
// questionnaire on either side, or no trait in common, is neutral (50).
func VibeCompatibility(a, b db.VibeAnswers) int {
	if len(a) == 0 || len(b) == 0 {
		return neutralVibe
	}

	shared, agree := 0, 0
	for trait, answer := range a {
		other, ok := b[trait]
		if !ok {
			continue
		}
		shared++
		if answer == other {
			agree++
		}
	}
	if shared == 0 {
		return neutralVibe
	}

	switch pct := agree * 100 / shared; pct {
	case 100:
		return vibeCeiling
	case 0:
		return vibeFloor
	default:
		return pct
	}
}

// RecencyScore decays linearly from 1 (active now) to 0 at RecencyHorizon.
func RecencyScore(lastActive, now time.Time) float64 {
	if lastActive.IsZero() {
		return 0
	}
	elapsed := now.Sub(lastActive)
	if elapsed <= 0 {
		return 1
	}
	s := 1 - float64(elapsed)/float64(RecencyHorizon)
	if s < 0 {
		return 0
	}
	return s
}

// SharedInterests returns the sorted intersection of two tag sets.
func SharedInterests(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	out := []string{}
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, ok := set[t]; !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Score combines the signals into one ranking value.
func Score(vibe, overlap int, recency float64, likedYou bool, windowPasses int) float64 {
	s := WeightVibe*float64(vibe) +
		WeightOverlap*float64(overlap) +
		WeightRecency*recency
	if likedYou {
		s += WeightLikedYou
	}
	if windowPasses == 1 {
		s *= SinglePassPenalty
	}
	return s
}
