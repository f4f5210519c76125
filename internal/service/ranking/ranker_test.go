package ranking_test

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/repository"
	"github.com/oggyb/crushconnect/internal/service/ranking"
	"github.com/oggyb/crushconnect/internal/testutil"
)

func noShuffle(int, func(i, j int)) {}

func ids(cs []ranking.Candidate) []uint64 {
	out := make([]uint64, len(cs))
	for i, c := range cs {
		out[i] = c.User.ID
	}
	return out
}

func TestRank_IneligibleViewer(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	r := ranking.NewRanker(env.App).WithShuffle(noShuffle)

	viewer := env.User(t, db.User{})
	_ = env.User(t, db.User{Gender: "female", SeekingGender: "male"})

	assert.Len(t, r.Rank(ctx, viewer.ID, repository.CandidateFilters{}), 1)

	env.DB.Model(&db.User{}).Where("id = ?", viewer.ID).Update("is_banned", true)
	assert.Empty(t, r.Rank(ctx, viewer.ID, repository.CandidateFilters{}))

	env.DB.Model(&db.User{}).Where("id = ?", viewer.ID).Updates(map[string]any{"is_banned": false, "is_active": false})
	assert.Empty(t, r.Rank(ctx, viewer.ID, repository.CandidateFilters{}))

	assert.Empty(t, r.Rank(ctx, 9999, repository.CandidateFilters{}))
}

func TestRank_OrderByScore(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	r := ranking.NewRanker(env.App).WithShuffle(noShuffle)

	vibe := db.VibeAnswers{"a": "1", "b": "1", "c": "1"}
	viewer := env.User(t, db.User{VibeAnswers: testutil.Vibe(vibe)}, "Music", "Tech", "Coffee")

	low := env.User(t, db.User{Gender: "female", SeekingGender: "male", VibeAnswers: testutil.Vibe(db.VibeAnswers{"a": "0", "b": "0", "c": "0"})})
	mid := env.User(t, db.User{Gender: "female", SeekingGender: "male", VibeAnswers: testutil.Vibe(db.VibeAnswers{"a": "1", "b": "0", "c": "0"})}, "Music")
	high := env.User(t, db.User{Gender: "female", SeekingGender: "male", VibeAnswers: testutil.Vibe(vibe)}, "Music", "Tech")

	got := r.Rank(ctx, viewer.ID, repository.CandidateFilters{})
	if diff := cmp.Diff([]uint64{high.ID, mid.ID, low.ID}, ids(got)); diff != "" {
		t.Errorf("rank order mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, got, 3)
	assert.Equal(t, 95, got[0].VibeScore)
	assert.Equal(t, []string{"Music", "Tech"}, got[0].SharedInterests)
	assert.Equal(t, 33, got[1].VibeScore)
	assert.Equal(t, 10, got[2].VibeScore)
	assert.Equal(t, ranking.Score(95, 2, 1, false, 0), got[0].Score)
}

func TestRank_PassWindow(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	r := ranking.NewRanker(env.App).WithShuffle(noShuffle)
	passes := repository.NewPassRepository(env.DB)

	viewer := env.User(t, db.User{})
	once := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	twice := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	control := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	// one pass just before the window, one inside it
	straddle := env.User(t, db.User{Gender: "female", SeekingGender: "male"})

	unpenalised := r.Rank(ctx, viewer.ID, repository.CandidateFilters{})
	require.Len(t, unpenalised, 4)
	scores := map[uint64]float64{}
	for _, c := range unpenalised {
		scores[c.User.ID] = c.Score
	}

	now := testutil.Base
	require.NoError(t, passes.Record(ctx, viewer.ID, once.ID, now.Add(-time.Hour)))
	require.NoError(t, passes.Record(ctx, viewer.ID, twice.ID, now.Add(-2*time.Hour)))
	require.NoError(t, passes.Record(ctx, viewer.ID, twice.ID, now.Add(-time.Hour)))
	require.NoError(t, passes.Record(ctx, viewer.ID, straddle.ID, now.Add(-84*time.Hour)))
	require.NoError(t, passes.Record(ctx, viewer.ID, straddle.ID, now.Add(-24*time.Hour)))

	got := r.Rank(ctx, viewer.ID, repository.CandidateFilters{})
	assert.NotContains(t, ids(got), twice.ID)
	assert.Contains(t, ids(got), straddle.ID)
	require.Len(t, got, 3)

	for _, c := range got {
		switch c.User.ID {
		case once.ID, straddle.ID:
			assert.Equal(t, 1, c.PassCount)
			assert.LessOrEqual(t, c.Score, scores[c.User.ID]/2)
		case control.ID:
			assert.Equal(t, scores[control.ID], c.Score)
		}
	}

	// after the window both come back unpenalised
	env.Clock.Advance(repository.PassWindow + time.Hour)
	got = r.Rank(ctx, viewer.ID, repository.CandidateFilters{})
	assert.ElementsMatch(t, []uint64{once.ID, twice.ID, control.ID, straddle.ID}, ids(got))
}

func TestRank_Filters(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	r := ranking.NewRanker(env.App).WithShuffle(noShuffle)

	viewer := env.User(t, db.User{})
	it := env.User(t, db.User{Gender: "female", SeekingGender: "male", Campus: "Main", Department: "IT", Year: "2nd Year"})
	_ = env.User(t, db.User{Gender: "female", SeekingGender: "male", Campus: "Main", Department: "Law", Year: "2nd Year"})
	_ = env.User(t, db.User{Gender: "female", SeekingGender: "male", Campus: "5kilo", Department: "IT", Year: "1st Year"})

	got := r.Rank(ctx, viewer.ID, repository.CandidateFilters{Campus: "Main", Department: "IT", Year: "2nd Year"})
	assert.Equal(t, []uint64{it.ID}, ids(got))

	assert.Empty(t, r.Rank(ctx, viewer.ID, repository.CandidateFilters{Campus: "Nowhere"}))
}

func TestRank_TopNAndHeadShuffle(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)

	viewer := env.User(t, db.User{})
	for i := 0; i < 60; i++ {
		_ = env.User(t, db.User{
			Gender:        "female",
			SeekingGender: "male",
			LastActive:    testutil.Base.Add(-time.Duration(i) * time.Hour),
		})
	}

	stable := ranking.NewRanker(env.App).WithShuffle(noShuffle).Rank(ctx, viewer.ID, repository.CandidateFilters{})
	require.Len(t, stable, ranking.TopN)

	var shuffledN int
	reversed := ranking.NewRanker(env.App).WithShuffle(func(n int, swap func(i, j int)) {
		shuffledN = n
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}).Rank(ctx, viewer.ID, repository.CandidateFilters{})

	assert.Equal(t, ranking.ShuffleHead, shuffledN)
	assert.Equal(t, stable[0].User.ID, reversed[ranking.ShuffleHead-1].User.ID)
	if diff := cmp.Diff(ids(stable[ranking.ShuffleHead:]), ids(reversed[ranking.ShuffleHead:])); diff != "" {
		t.Errorf("tail must not move (-stable +shuffled):\n%s", diff)
	}
}

// Property: every returned candidate satisfies the viewer's preference and
// the viewer satisfies the candidate's.
func TestRank_GenderFilterIsSymmetric(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	r := ranking.NewRanker(env.App)

	rng := rand.New(rand.NewSource(7))
	genders := []string{"male", "female", "nonbinary"}
	seeking := []string{"male", "female", "nonbinary", "any", "Any"}

	users := map[uint64]db.User{}
	for i := 0; i < 40; i++ {
		u := env.User(t, db.User{
			Name:          fmt.Sprintf("u%d", i),
			Gender:        genders[rng.Intn(len(genders))],
			SeekingGender: seeking[rng.Intn(len(seeking))],
		})
		users[u.ID] = u
	}

	accepts := func(seeker, other db.User) bool {
		s := strings.ToLower(seeker.SeekingGender)
		return s == db.SeekAny || s == strings.ToLower(other.Gender)
	}

	for _, viewer := range users {
		for _, c := range r.Rank(ctx, viewer.ID, repository.CandidateFilters{}) {
			assert.NotEqual(t, viewer.ID, c.User.ID)
			assert.True(t, accepts(viewer, c.User), "viewer %d (%s) got %d (%s)", viewer.ID, viewer.SeekingGender, c.User.ID, c.User.Gender)
			assert.True(t, accepts(c.User, viewer), "candidate %d seeks %s, viewer is %s", c.User.ID, c.User.SeekingGender, viewer.Gender)
		}
	}
}

func TestRank_StoreErrorReturnsEmpty(t *testing.T) {
	env := testutil.New(t)
	r := ranking.NewRanker(env.App)
	viewer := env.User(t, db.User{})

	sqlDB, err := env.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	got := r.Rank(context.Background(), viewer.ID, repository.CandidateFilters{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
