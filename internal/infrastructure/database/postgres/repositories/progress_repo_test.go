//go:build integration

package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres/repositories"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

func TestProgressRepository_CreateAndGetByID(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewProgressRepository(pool, nopLog())
	ctx := context.Background()

	member := seedUser(t, pool, "p-member", user.RoleLeadGen)
	p := seedProfile(t, pool, "p-profile")

	pu, err := progress.New(member.ID, p.ID, mustDate(t, "2025-03-04"), 12, 5, "slow day")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, pu))

	found, err := repo.GetByID(ctx, pu.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, found.JobsFetched)
	assert.Equal(t, 5, found.JobsApplied)
	assert.Equal(t, "slow day", found.Notes)
	assert.True(t, found.WorkDate.Equal(mustDate(t, "2025-03-04")))
}

func TestProgressRepository_Create_DuplicateDate(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewProgressRepository(pool, nopLog())
	ctx := context.Background()

	member := seedUser(t, pool, "pd-member", user.RoleLeadGen)
	p := seedProfile(t, pool, "pd-profile")

	first, err := progress.New(member.ID, p.ID, mustDate(t, "2025-03-04"), 12, 5, "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := progress.New(member.ID, p.ID, mustDate(t, "2025-03-04"), 8, 3, "")
	require.NoError(t, err)

	err = repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProgressDuplicate))

	// A different date on the same pair is fine.
	third, err := progress.New(member.ID, p.ID, mustDate(t, "2025-03-05"), 8, 3, "")
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, third))
}

func TestProgressRepository_GetByPairAndDate(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewProgressRepository(pool, nopLog())
	ctx := context.Background()

	member := seedUser(t, pool, "pp-member", user.RoleLeadGen)
	p := seedProfile(t, pool, "pp-profile")

	pu, err := progress.New(member.ID, p.ID, mustDate(t, "2025-03-06"), 20, 9, "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, pu))

	found, err := repo.GetByPairAndDate(ctx, member.ID, p.ID, mustDate(t, "2025-03-06"))
	require.NoError(t, err)
	assert.Equal(t, pu.ID, found.ID)

	_, err = repo.GetByPairAndDate(ctx, member.ID, p.ID, mustDate(t, "2025-03-07"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProgressNotFound))
}

func TestProgressRepository_List_DateRange(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewProgressRepository(pool, nopLog())
	ctx := context.Background()

	member := seedUser(t, pool, "pl-member", user.RoleLeadGen)
	p := seedProfile(t, pool, "pl-profile")

	for _, day := range []string{"2025-03-03", "2025-03-04", "2025-03-05", "2025-03-10"} {
		pu, err := progress.New(member.ID, p.ID, mustDate(t, day), 10, 4, "")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, pu))
	}

	results, total, err := repo.List(ctx, progress.ListFilter{
		UserID: member.ID,
		From:   mustDate(t, "2025-03-03"),
		To:     mustDate(t, "2025-03-09"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, results, 3)
	// Most recent work date first.
	assert.True(t, results[0].WorkDate.Equal(mustDate(t, "2025-03-05")))
}

func TestProgressRepository_Update(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewProgressRepository(pool, nopLog())
	ctx := context.Background()

	member := seedUser(t, pool, "pu-member", user.RoleLeadGen)
	p := seedProfile(t, pool, "pu-profile")

	pu, err := progress.New(member.ID, p.ID, mustDate(t, "2025-03-04"), 12, 5, "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, pu))

	require.NoError(t, pu.Revise(15, 7, "corrected after review"))
	require.NoError(t, repo.Update(ctx, pu))

	found, err := repo.GetByID(ctx, pu.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, found.JobsFetched)
	assert.Equal(t, 7, found.JobsApplied)
	assert.Equal(t, "corrected after review", found.Notes)
}

func TestProgressRepository_Delete(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewProgressRepository(pool, nopLog())
	ctx := context.Background()

	member := seedUser(t, pool, "pr-member", user.RoleLeadGen)
	p := seedProfile(t, pool, "pr-profile")

	pu, err := progress.New(member.ID, p.ID, mustDate(t, "2025-03-04"), 12, 5, "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, pu))
	require.NoError(t, repo.Delete(ctx, pu.ID))

	_, err = repo.GetByID(ctx, pu.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProgressNotFound))
}

func TestProgressRepository_SummarizeRange(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewProgressRepository(pool, nopLog())
	ctx := context.Background()

	memberA := seedUser(t, pool, "ps-a", user.RoleLeadGen)
	memberB := seedUser(t, pool, "ps-b", user.RoleLeadGen)
	pa := seedProfile(t, pool, "ps-pa")
	pb := seedProfile(t, pool, "ps-pb")

	week := []struct {
		userID    common.ID
		profileID common.ID
		day       string
		fetched   int
		applied   int
	}{
		{memberA.ID, pa.ID, "2025-03-03", 10, 4},
		{memberA.ID, pa.ID, "2025-03-04", 15, 6},
		{memberB.ID, pb.ID, "2025-03-03", 8, 2},
		// Outside the summarized week.
		{memberA.ID, pa.ID, "2025-03-10", 99, 99},
	}
	for _, w := range week {
		pu, err := progress.New(w.userID, w.profileID, mustDate(t, w.day), w.fetched, w.applied, "")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, pu))
	}

	totals, err := repo.SummarizeRange(ctx, mustRange(t, "2025-03-03", "2025-03-09"))
	require.NoError(t, err)
	require.Len(t, totals, 2)

	byUser := map[common.ID]progress.PairTotals{}
	for _, pt := range totals {
		byUser[pt.UserID] = pt
	}

	a := byUser[memberA.ID]
	assert.Equal(t, 25, a.JobsFetched)
	assert.Equal(t, 10, a.JobsApplied)
	assert.Equal(t, 2, a.DaysWorked)

	b := byUser[memberB.ID]
	assert.Equal(t, 8, b.JobsFetched)
	assert.Equal(t, 2, b.JobsApplied)
	assert.Equal(t, 1, b.DaysWorked)
}

func TestProgressRepository_ListInRange(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewProgressRepository(pool, nopLog())
	ctx := context.Background()

	member := seedUser(t, pool, "pi-member", user.RoleLeadGen)
	p := seedProfile(t, pool, "pi-profile")

	for _, day := range []string{"2025-03-05", "2025-03-03", "2025-03-12"} {
		pu, err := progress.New(member.ID, p.ID, mustDate(t, day), 10, 4, "")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, pu))
	}

	results, err := repo.ListInRange(ctx, mustRange(t, "2025-03-03", "2025-03-09"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Ordered by pair then work date for deterministic report rows.
	assert.True(t, results[0].WorkDate.Equal(mustDate(t, "2025-03-03")))
	assert.True(t, results[1].WorkDate.Equal(mustDate(t, "2025-03-05")))
}
