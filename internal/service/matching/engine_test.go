package matching_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
	"github.com/oggyb/crushconnect/internal/publisher/mocks"
	"github.com/oggyb/crushconnect/internal/service/announce"
	"github.com/oggyb/crushconnect/internal/service/matching"
	"github.com/oggyb/crushconnect/internal/testutil"
)

type enqueueCall struct {
	matchID uint64
	special *db.SpecialType
	vibe    float64
	shared  []string
}

type fakeQueue struct {
	mu    sync.Mutex
	calls []enqueueCall
	err   error
}

func (f *fakeQueue) Enqueue(
	_ context.Context,
	match *db.Match,
	_, _ announce.Participant,
	special *db.SpecialType,
	vibe float64,
	shared []string,
) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, enqueueCall{matchID: match.ID, special: special, vibe: vibe, shared: shared})
	if f.err != nil {
		return 0, f.err
	}
	return uint64(len(f.calls)), nil
}

func (f *fakeQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func never() float64 { return 1 }

func count(t *testing.T, env *testutil.Env, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(model).Count(&n).Error)
	return n
}

func TestLike_Idempotent(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	q := &fakeQueue{}
	engine := matching.NewEngine(env.App, q).WithSampler(never)

	a := env.User(t, db.User{})
	b := env.User(t, db.User{Gender: "female", SeekingGender: "male"})

	first := engine.Like(ctx, a.ID, b.ID)
	second := engine.Like(ctx, a.ID, b.ID)
	assert.Equal(t, matching.StatusLiked, first.Status)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), count(t, env, &db.Like{}))

	m1 := engine.Like(ctx, b.ID, a.ID)
	m2 := engine.Like(ctx, b.ID, a.ID)
	require.Equal(t, matching.StatusMatch, m1.Status)
	assert.Equal(t, m1, m2)
	assert.Equal(t, int64(2), count(t, env, &db.Like{}))
	assert.Equal(t, int64(1), count(t, env, &db.Match{}))
}

func TestLike_SelfIsInvalid(t *testing.T) {
	env := testutil.New(t)
	engine := matching.NewEngine(env.App, &fakeQueue{})
	a := env.User(t, db.User{})

	res := engine.Like(context.Background(), a.ID, a.ID)
	assert.Equal(t, matching.StatusInvalid, res.Status)
	assert.ErrorIs(t, res.Err, svcErr.ErrSelfAction)
	assert.Equal(t, int64(0), count(t, env, &db.Like{}))
}

func TestLike_SymmetricMatchCreation(t *testing.T) {
	for _, reverse := range []bool{false, true} {
		t.Run(map[bool]string{false: "low_first", true: "high_first"}[reverse], func(t *testing.T) {
			ctx := context.Background()
			env := testutil.New(t)
			engine := matching.NewEngine(env.App, &fakeQueue{}).WithSampler(never)

			lo := env.User(t, db.User{})
			hi := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
			first, second := lo.ID, hi.ID
			if reverse {
				first, second = hi.ID, lo.ID
			}

			require.Equal(t, matching.StatusLiked, engine.Like(ctx, first, second).Status)
			res := engine.Like(ctx, second, first)
			require.Equal(t, matching.StatusMatch, res.Status)

			var m db.Match
			require.NoError(t, env.DB.First(&m, res.MatchID).Error)
			assert.Equal(t, lo.ID, m.User1ID)
			assert.Equal(t, hi.ID, m.User2ID)
			assert.Equal(t, first, m.InitiatorID)
			assert.True(t, m.ChatActive)
			assert.False(t, m.Revealed)
		})
	}
}

func TestLike_ConcurrentMutualLikesCreateOneMatch(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	q := &fakeQueue{}
	engine := matching.NewEngine(env.App, q).WithSampler(func() float64 { return 0 })

	a := env.User(t, db.User{})
	b := env.User(t, db.User{Gender: "female", SeekingGender: "male"})

	var wg sync.WaitGroup
	results := make([]matching.Result, 2)
	for i, pair := range [][2]uint64{{a.ID, b.ID}, {b.ID, a.ID}} {
		wg.Add(1)
		go func(i int, liker, liked uint64) {
			defer wg.Done()
			results[i] = engine.Like(ctx, liker, liked)
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	matched := 0
	for _, r := range results {
		require.NotEqual(t, matching.StatusError, r.Status, "%v", r.Err)
		if r.Status == matching.StatusMatch {
			matched++
		}
	}
	assert.GreaterOrEqual(t, matched, 1)
	assert.Equal(t, int64(1), count(t, env, &db.Match{}))
	assert.Equal(t, 1, q.count(), "a match is offered to the queue once")
}

func TestLike_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)

	slots, err := announce.ParseSlots(env.App.Config.Scheduler.PrimeSlots, "UTC")
	require.NoError(t, err)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockAdminNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(1)

	engine := matching.NewEngine(env.App, announce.NewQueue(env.App, slots, notifier)).WithSampler(never)

	vibe := testutil.Vibe(db.VibeAnswers{"x": "1", "y": "0"})
	a := env.User(t, db.User{Campus: "Main", Department: "IT", Year: "2nd Year", VibeAnswers: vibe}, "Music", "Tech", "Coffee")
	b := env.User(t, db.User{Campus: "Main", Department: "IT", Year: "2nd Year", VibeAnswers: vibe, Gender: "female", SeekingGender: "male"}, "Music", "Tech", "Coffee")

	require.Equal(t, matching.StatusLiked, engine.Like(ctx, a.ID, b.ID).Status)
	res := engine.Like(ctx, b.ID, a.ID)
	require.Equal(t, matching.StatusMatch, res.Status)

	var items []db.QueueItem
	require.NoError(t, env.DB.Find(&items).Error)
	require.Len(t, items, 1)
	item := items[0]

	assert.Equal(t, res.MatchID, item.MatchID)
	assert.Equal(t, 95.0, item.VibeScore)
	require.NotNil(t, item.SpecialType)
	assert.Equal(t, db.SpecialHighVibe, *item.SpecialType)
	assert.Equal(t, []string{"Coffee", "Music", "Tech"}, item.Snapshot.Data().SharedInterests)
	assert.True(t, item.NextPostTime.Equal(slots.Next(testutil.Base)))
	assert.True(t, item.NextPostTime.Equal(time.Date(2024, 3, 4, 12, 15, 0, 0, time.UTC)))
}

func TestLike_SamplingOfPlainMatches(t *testing.T) {
	plain := func(t *testing.T, env *testutil.Env) (db.User, db.User) {
		a := env.User(t, db.User{Campus: "Main", Department: "IT", Year: "2nd Year"})
		b := env.User(t, db.User{Campus: "Main", Department: "Law", Year: "3rd Year", Gender: "female", SeekingGender: "male"})
		return a, b
	}

	t.Run("not_sampled", func(t *testing.T) {
		ctx := context.Background()
		env := testutil.New(t)
		q := &fakeQueue{}
		engine := matching.NewEngine(env.App, q).WithSampler(func() float64 { return 0.5 })
		a, b := plain(t, env)

		engine.Like(ctx, a.ID, b.ID)
		require.Equal(t, matching.StatusMatch, engine.Like(ctx, b.ID, a.ID).Status)
		assert.Equal(t, 0, q.count())
	})

	t.Run("sampled", func(t *testing.T) {
		ctx := context.Background()
		env := testutil.New(t)
		q := &fakeQueue{}
		engine := matching.NewEngine(env.App, q).WithSampler(func() float64 { return 0.05 })
		a, b := plain(t, env)

		engine.Like(ctx, a.ID, b.ID)
		res := engine.Like(ctx, b.ID, a.ID)
		require.Equal(t, matching.StatusMatch, res.Status)
		require.Equal(t, 1, q.count())
		assert.Nil(t, q.calls[0].special)
		assert.Equal(t, res.MatchID, q.calls[0].matchID)
		assert.Equal(t, 50.0, q.calls[0].vibe)
	})
}

func TestLike_EnqueueFailureKeepsMatch(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	q := &fakeQueue{err: errors.New("queue table locked")}
	engine := matching.NewEngine(env.App, q)

	a := env.User(t, db.User{Campus: "Main"})
	b := env.User(t, db.User{Campus: "5kilo", Gender: "female", SeekingGender: "male"})

	engine.Like(ctx, a.ID, b.ID)
	res := engine.Like(ctx, b.ID, a.ID)
	require.Equal(t, matching.StatusMatch, res.Status)
	assert.Equal(t, 1, q.count())
	require.NotNil(t, q.calls[0].special)
	assert.Equal(t, db.SpecialCrossCampus, *q.calls[0].special)

	var m db.Match
	require.NoError(t, env.DB.First(&m, res.MatchID).Error)
	assert.True(t, m.ChatActive)
}

func TestUnmatch_Reversible(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	engine := matching.NewEngine(env.App, &fakeQueue{}).WithSampler(never)

	a := env.User(t, db.User{})
	b := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	stranger := env.User(t, db.User{})

	engine.Like(ctx, a.ID, b.ID)
	first := engine.Like(ctx, b.ID, a.ID)
	require.Equal(t, matching.StatusMatch, first.Status)

	ok, err := engine.Reveal(ctx, first.MatchID, a.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = engine.Unmatch(ctx, first.MatchID, stranger.ID)
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	snap, err := engine.Unmatch(ctx, first.MatchID, a.ID)
	require.NoError(t, err)
	assert.False(t, snap.ChatActive)
	assert.False(t, snap.Revealed)
	assert.Equal(t, int64(0), count(t, env, &db.Like{}))

	// a second unmatch leaves new one-sided likes alone
	require.Equal(t, matching.StatusLiked, engine.Like(ctx, a.ID, b.ID).Status)
	_, err = engine.Unmatch(ctx, first.MatchID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, env, &db.Like{}))

	second := engine.Like(ctx, b.ID, a.ID)
	require.Equal(t, matching.StatusMatch, second.Status)
	assert.NotEqual(t, first.MatchID, second.MatchID)

	var old db.Match
	require.NoError(t, env.DB.First(&old, first.MatchID).Error)
	assert.False(t, old.ChatActive)
	assert.False(t, old.Revealed)
}

func TestReveal(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	engine := matching.NewEngine(env.App, &fakeQueue{}).WithSampler(never)

	a := env.User(t, db.User{})
	b := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	stranger := env.User(t, db.User{})

	engine.Like(ctx, a.ID, b.ID)
	res := engine.Like(ctx, b.ID, a.ID)

	ok, err := engine.Reveal(ctx, res.MatchID, stranger.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	_, err = engine.Reveal(ctx, 999, a.ID)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	ok, err = engine.Reveal(ctx, res.MatchID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	var m db.Match
	require.NoError(t, env.DB.First(&m, res.MatchID).Error)
	assert.True(t, m.Revealed)

	_, err = engine.Unmatch(ctx, res.MatchID, b.ID)
	require.NoError(t, err)
	ok, err = engine.Reveal(ctx, res.MatchID, b.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestPass(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	engine := matching.NewEngine(env.App, &fakeQueue{})

	a := env.User(t, db.User{})
	b := env.User(t, db.User{Gender: "female", SeekingGender: "male"})

	assert.Equal(t, matching.StatusPassed, engine.Pass(ctx, a.ID, b.ID).Status)
	assert.Equal(t, matching.StatusPassed, engine.Pass(ctx, a.ID, b.ID).Status)
	assert.Equal(t, matching.StatusInvalid, engine.Pass(ctx, a.ID, a.ID).Status)

	var p db.Pass
	require.NoError(t, env.DB.Where("user_id = ? AND target_id = ?", a.ID, b.ID).First(&p).Error)
	assert.Equal(t, 2, p.PassCount)
}

func TestLikeAndPass_IneligibleTarget(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	engine := matching.NewEngine(env.App, &fakeQueue{}).WithSampler(never)

	a := env.User(t, db.User{})
	banned := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	inactive := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	require.NoError(t, env.DB.Model(&db.User{}).Where("id = ?", banned.ID).Update("is_banned", true).Error)
	require.NoError(t, env.DB.Model(&db.User{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	tests := []struct {
		name    string
		target  uint64
		wantErr error
	}{
		{"unknown", 9999, svcErr.ErrNotFound},
		{"banned", banned.ID, svcErr.ErrInvalidArgument},
		{"inactive", inactive.ID, svcErr.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.Like(ctx, a.ID, tt.target)
			assert.Equal(t, matching.StatusInvalid, res.Status)
			assert.ErrorIs(t, res.Err, tt.wantErr)

			res = engine.Pass(ctx, a.ID, tt.target)
			assert.Equal(t, matching.StatusInvalid, res.Status)
			assert.ErrorIs(t, res.Err, tt.wantErr)
		})
	}

	assert.Zero(t, count(t, env, &db.Like{}))
	assert.Zero(t, count(t, env, &db.Pass{}))
}

func TestUnlike(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	engine := matching.NewEngine(env.App, &fakeQueue{}).WithSampler(never)

	a := env.User(t, db.User{})
	b := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	c := env.User(t, db.User{Gender: "female", SeekingGender: "male"})

	engine.Like(ctx, a.ID, b.ID)
	removed, err := engine.Unlike(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = engine.Unlike(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	engine.Like(ctx, a.ID, c.ID)
	engine.Like(ctx, c.ID, a.ID)
	_, err = engine.Unlike(ctx, a.ID, c.ID)
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestLike_DropsCachedAdmirerCount(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	engine := matching.NewEngine(env.App, &fakeQueue{})

	a := env.User(t, db.User{})
	b := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	require.NoError(t, env.App.RedisCache.SetAdmirerCount(ctx, b.ID, 7))

	engine.Like(ctx, a.ID, b.ID)

	_, ok, err := env.App.RedisCache.GetAdmirerCount(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	env := testutil.New(t)
	engine := matching.NewEngine(env.App, &fakeQueue{}).WithSampler(never)

	a := env.User(t, db.User{})
	b := env.User(t, db.User{Gender: "female", SeekingGender: "male"})
	engine.Like(ctx, a.ID, b.ID)
	res := engine.Like(ctx, b.ID, a.ID)

	ms, err := engine.ListMatches(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, res.MatchID, ms[0].ID)
	assert.Equal(t, a.ID, ms[0].Other(b.ID))
}
