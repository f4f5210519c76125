package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
	"github.com/oggyb/crushconnect/internal/repository"
)

func TestGetAndUpdateUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	u := mkUser(t, dbase, db.User{Name: "Abel", Campus: "Main"})

	got, err := repo.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Abel", got.Name)

	require.NoError(t, repo.UpdateUser(ctx, u.ID, map[string]any{"campus": "5kilo"}))
	got, _ = repo.GetUser(ctx, u.ID)
	assert.Equal(t, "5kilo", got.Campus)

	_, err = repo.GetUser(ctx, 404)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateUser(ctx, 404, map[string]any{"campus": "x"}), svcErr.ErrNotFound)
}

func TestInterests(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	a := mkUser(t, dbase, db.User{Name: "a"})
	b := mkUser(t, dbase, db.User{Name: "b"})

	require.NoError(t, repo.SetUserInterests(ctx, a.ID, []string{"Music", "Tech", "Coffee"}))
	require.NoError(t, repo.SetUserInterests(ctx, b.ID, []string{"Tech", "Gym"}))
	// replacing keeps the catalog and relinks
	require.NoError(t, repo.SetUserInterests(ctx, b.ID, []string{"Tech", "Books"}))

	got, err := repo.GetUserInterests(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Coffee", "Music", "Tech"}, got)

	many, err := repo.GetInterestsForMany(ctx, []uint64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Tech"}, many[b.ID])
	assert.NotContains(t, many, uint64(999))

	var catalog int64
	dbase.Model(&db.Interest{}).Count(&catalog)
	assert.Equal(t, int64(5), catalog)
}

func TestGetActiveUserIDs(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	a := mkUser(t, dbase, db.User{})
	b := mkUser(t, dbase, db.User{})
	c := mkUser(t, dbase, db.User{})
	dbase.Model(&db.User{}).Where("id = ?", b.ID).Update("is_banned", true)
	dbase.Model(&db.User{}).Where("id = ?", c.ID).Update("is_active", false)

	ids, err := repo.GetActiveUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID}, ids)
}

func TestListCandidates(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)
	likes := repository.NewLikeRepository(dbase)
	passes := repository.NewPassRepository(dbase)

	viewer := mkUser(t, dbase, db.User{Name: "viewer", Gender: "male", SeekingGender: "female", Campus: "Main"})

	fresh := mkUser(t, dbase, db.User{Name: "fresh", Gender: "female", SeekingGender: "male", Campus: "Main", LastActive: base})
	stale := mkUser(t, dbase, db.User{Name: "stale", Gender: "female", SeekingGender: "any", Campus: "5kilo", LastActive: base.Add(-48 * time.Hour)})
	admirer := mkUser(t, dbase, db.User{Name: "admirer", Gender: "female", SeekingGender: "male", Campus: "Main", LastActive: base.Add(-72 * time.Hour)})
	onePass := mkUser(t, dbase, db.User{Name: "onepass", Gender: "female", SeekingGender: "male", Campus: "Main", LastActive: base.Add(-96 * time.Hour)})
	twoPass := mkUser(t, dbase, db.User{Name: "twopass", Gender: "female", SeekingGender: "male", Campus: "Main"})
	alreadyLiked := mkUser(t, dbase, db.User{Name: "liked", Gender: "female", SeekingGender: "male", Campus: "Main"})
	_ = mkUser(t, dbase, db.User{Name: "wrong-gender", Gender: "male", SeekingGender: "female"})
	_ = mkUser(t, dbase, db.User{Name: "not-seeking-viewer", Gender: "female", SeekingGender: "female"})
	banned := mkUser(t, dbase, db.User{Name: "banned", Gender: "female", SeekingGender: "male"})
	dbase.Model(&db.User{}).Where("id = ?", banned.ID).Update("is_banned", true)

	_, _ = likes.Insert(ctx, admirer.ID, viewer.ID)
	_, _ = likes.Insert(ctx, viewer.ID, alreadyLiked.ID)
	require.NoError(t, passes.Record(ctx, viewer.ID, onePass.ID, base.Add(-time.Hour)))
	require.NoError(t, passes.Record(ctx, viewer.ID, twoPass.ID, base.Add(-2*time.Hour)))
	require.NoError(t, passes.Record(ctx, viewer.ID, twoPass.ID, base.Add(-time.Hour)))

	rows, err := repo.ListCandidates(ctx, &viewer, repository.CandidateFilters{}, base)
	require.NoError(t, err)

	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	// liked-you first, then last_active desc
	assert.Equal(t, []string{"admirer", "fresh", "stale", "onepass"}, names)
	assert.Equal(t, 1, rows[0].LikedYou)
	assert.Equal(t, 1, rows[3].PassCount)
	assert.Equal(t, 0, rows[1].PassCount)

	// exact-match filter
	rows, err = repo.ListCandidates(ctx, &viewer, repository.CandidateFilters{Campus: "5kilo"}, base)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)

	// two passes decay after the window
	rows, err = repo.ListCandidates(ctx, &viewer, repository.CandidateFilters{}, base.Add(repository.PassWindow))
	require.NoError(t, err)
	var ids []uint64
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, twoPass.ID)
	assert.Contains(t, ids, fresh.ID)
}

func TestListCandidates_ViewerSeekingAny(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	viewer := mkUser(t, dbase, db.User{Gender: "female", SeekingGender: "any"})
	m := mkUser(t, dbase, db.User{Gender: "male", SeekingGender: "female"})
	f := mkUser(t, dbase, db.User{Gender: "female", SeekingGender: "Any"})
	_ = mkUser(t, dbase, db.User{Gender: "male", SeekingGender: "male"})

	rows, err := repo.ListCandidates(ctx, &viewer, repository.CandidateFilters{}, base)
	require.NoError(t, err)
	var ids []uint64
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []uint64{m.ID, f.ID}, ids)
}
