package matching

import (
	"strings"

	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/service/ranking"
)

const (
	// HighVibeThreshold is the vibe score at which a match is high-vibe.
	HighVibeThreshold = 80
	// SharedInterestsThreshold is how many common interests make a match special.
	SharedInterestsThreshold = 3
)

type pair [2]string

func (p pair) has(a, b string) bool {
	a, b = normalize(a), normalize(b)
	return (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a)
}

// freshmanSeniorYears are the year gaps worth a freshman-senior label.
var freshmanSeniorYears = []pair{
	{"1st year", "4th year"},
	{"1st year", "5th year+"},
	{"2nd year", "5th year+"},
}

// contrastDepartments are department pairs announced as opposites.
var contrastDepartments = []pair{
	{"business", "engineering"},
	{"natural sciences", "social sciences"},
	{"law", "business"},
	{"it", "health sciences"},
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func inAny(pairs []pair, a, b string) bool {
	for _, p := range pairs {
		if p.has(a, b) {
			return true
		}
	}
	return false
}

// Classify labels a match with at most one special type. Rules are checked in
// order and the first hit wins:
//
//  1. high-vibe: vibe >= HighVibeThreshold
//  2. freshman-senior: years form a freshman/senior gap, either way round
//  3. cross-campus: both campuses set and different
//  4. shared-interests: at least SharedInterestsThreshold in common
//  5. same-department: both departments set and equal
//  6. opposite-department: departments form a contrast pair
//
// Text comparisons ignore case and surrounding space. The shared interests
// are returned alongside since callers need them for the announcement.
func Classify(u1, u2 db.User, interests1, interests2 []string, vibe int) (*db.SpecialType, []string) {
	shared := ranking.SharedInterests(interests1, interests2)

	label := func(st db.SpecialType) (*db.SpecialType, []string) { return &st, shared }

	campus1, campus2 := normalize(u1.Campus), normalize(u2.Campus)
	dept1, dept2 := normalize(u1.Department), normalize(u2.Department)

	switch {
	case vibe >= HighVibeThreshold:
		return label(db.SpecialHighVibe)
	case inAny(freshmanSeniorYears, u1.Year, u2.Year):
		return label(db.SpecialFreshmanSenior)
	case campus1 != "" && campus2 != "" && campus1 != campus2:
		return label(db.SpecialCrossCampus)
	case len(shared) >= SharedInterestsThreshold:
		return label(db.SpecialSharedInterests)
	case dept1 != "" && dept1 == dept2:
		return label(db.SpecialSameDepartment)
	case dept1 != "" && dept2 != "" && inAny(contrastDepartments, dept1, dept2):
		return label(db.SpecialOppositeDepartment)
	}
	return nil, shared
}
