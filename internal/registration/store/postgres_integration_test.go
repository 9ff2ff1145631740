//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takaful/internal/member"
	"takaful/internal/platform/postgres"
	"takaful/internal/registration/models"
	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
	"takaful/pkg/testutil/containers"
)

func setupPostgres(t *testing.T) (*Postgres, *member.PostgresStore) {
	t.Helper()
	pc := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.Migrate(context.Background(), pc.DB))
	return NewPostgres(pc.DB), member.NewPostgresStore(pc.DB)
}

func seedMember(t *testing.T, members *member.PostgresStore, phone string) domain.MemberID {
	t.Helper()
	m := member.New(phone, time.Now().UTC())
	require.NoError(t, members.Create(context.Background(), m))
	return m.ID
}

func TestPostgresRoundTrip(t *testing.T) {
	regs, members := setupPostgres(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	memberID := seedMember(t, members, "+966500000001")
	reg := models.NewRegistration(domain.NewRegistrationID(), memberID, domain.BranchID{}, models.Snapshot{
		FullName: "نورة القحطاني",
		Phone:    "+966500000001",
	}, now)
	require.NoError(t, regs.Create(ctx, reg))

	got, err := regs.FindByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, got.ID)
	assert.Equal(t, models.StatusProfileIncomplete, got.Status)
	assert.Equal(t, "نورة القحطاني", got.FullName)
	assert.Nil(t, got.SubmittedAt)
	assert.Equal(t, int64(1), got.Version)

	byMember, err := regs.FindByMemberID(ctx, memberID)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, byMember.ID)

	_, err = regs.FindByID(ctx, domain.NewRegistrationID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresOneOpenRegistrationPerMember(t *testing.T) {
	regs, members := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	memberID := seedMember(t, members, "+966500000002")
	first := models.NewRegistration(domain.NewRegistrationID(), memberID, domain.BranchID{}, models.Snapshot{}, now)
	require.NoError(t, regs.Create(ctx, first))

	second := models.NewRegistration(domain.NewRegistrationID(), memberID, domain.BranchID{}, models.Snapshot{}, now)
	assert.ErrorIs(t, regs.Create(ctx, second), sentinel.ErrConflict)
}

func TestPostgresExecuteBumpsVersion(t *testing.T) {
	regs, members := setupPostgres(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	memberID := seedMember(t, members, "+966500000003")
	reg := models.NewRegistration(domain.NewRegistrationID(), memberID, domain.BranchID{}, models.Snapshot{}, now)
	reg.Status = models.StatusPendingDocuments
	require.NoError(t, regs.Create(ctx, reg))

	beneficiary := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleBeneficiary, Name: "نورة"}
	updated, err := regs.Execute(ctx, reg.ID,
		func(r *models.Registration) error {
			return r.CanTransition(beneficiary.Role, models.StatusPendingReview, "")
		},
		func(r *models.Registration) {
			r.ApplyTransition(beneficiary, models.StatusPendingReview, "", now.Add(time.Minute))
		},
	)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, updated.Status)
	assert.Equal(t, int64(2), updated.Version)
	require.NotNil(t, updated.SubmittedAt)

	persisted, err := regs.FindByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, persisted.Status)
	assert.Equal(t, int64(2), persisted.Version)
}

func TestPostgresExecuteValidateFailureLeavesRowUntouched(t *testing.T) {
	regs, members := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	memberID := seedMember(t, members, "+966500000004")
	reg := models.NewRegistration(domain.NewRegistrationID(), memberID, domain.BranchID{}, models.Snapshot{}, now)
	require.NoError(t, regs.Create(ctx, reg))

	wantErr := assert.AnError
	_, err := regs.Execute(ctx, reg.ID,
		func(*models.Registration) error { return wantErr },
		func(*models.Registration) { t.Fatal("mutate must not run when validate fails") },
	)
	assert.ErrorIs(t, err, wantErr)

	persisted, err := regs.FindByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), persisted.Version)
}

func TestPostgresListAndCount(t *testing.T) {
	regs, members := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	m1 := seedMember(t, members, "+966500000005")
	m2 := seedMember(t, members, "+966500000006")

	r1 := models.NewRegistration(domain.NewRegistrationID(), m1, domain.BranchID{}, models.Snapshot{FullName: "سارة العتيبي", NationalID: "1088776655"}, now)
	r1.Status = models.StatusPendingReview
	require.NoError(t, regs.Create(ctx, r1))

	r2 := models.NewRegistration(domain.NewRegistrationID(), m2, domain.BranchID{}, models.Snapshot{FullName: "محمد الدوسري"}, now)
	r2.Status = models.StatusApproved
	require.NoError(t, regs.Create(ctx, r2))

	pending, err := regs.List(ctx, Filter{Status: models.StatusPendingReview})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, r1.ID, pending[0].ID)

	bySearch, err := regs.List(ctx, Filter{Search: "1088"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, r1.ID, bySearch[0].ID)

	counts, err := regs.CountByStatus(ctx, domain.BranchID{})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.StatusPendingReview])
	assert.Equal(t, 1, counts[models.StatusApproved])
}
