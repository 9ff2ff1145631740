package stats

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takaful/internal/branch"
	"takaful/internal/registration/models"
	"takaful/internal/registration/store"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
)

func seedStats(t *testing.T) (*Service, domain.BranchID, domain.BranchID) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	branches := branch.NewInMemoryStore()
	riyadh := branch.New("فرع الرياض", "الرياض", "", now)
	jeddah := branch.New("فرع جدة", "جدة", "", now)
	require.NoError(t, branches.Create(context.Background(), riyadh))
	require.NoError(t, branches.Create(context.Background(), jeddah))

	regs := store.NewInMemory()
	add := func(branchID domain.BranchID, status models.Status) {
		reg := models.NewRegistration(domain.NewRegistrationID(), domain.NewMemberID(), branchID, models.Snapshot{}, now)
		reg.Status = status
		require.NoError(t, regs.Create(context.Background(), reg))
	}
	add(riyadh.ID, models.StatusPendingReview)
	add(riyadh.ID, models.StatusPendingReview)
	add(riyadh.ID, models.StatusApproved)
	add(jeddah.ID, models.StatusUnderEmployeeReview)

	return New(regs, branches, logger), riyadh.ID, jeddah.ID
}

func TestForBranchScopesToActor(t *testing.T) {
	svc, riyadh, jeddah := seedStats(t)

	manager := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleBranchManager, BranchID: riyadh}
	got, err := svc.ForBranch(context.Background(), manager, jeddah)
	require.NoError(t, err)
	assert.Equal(t, riyadh.String(), got.BranchID, "managers are pinned to their own branch")
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.ByStatus["pending_review"])

	beneficiary := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleBeneficiary}
	_, err = svc.ForBranch(context.Background(), beneficiary, riyadh)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestOverviewAggregatesAllBranches(t *testing.T) {
	svc, _, _ := seedStats(t)
	admin := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleAdmin}

	got, err := svc.Overview(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 2, got.ByStatus["pending_review"])
	assert.Equal(t, 1, got.ByStatus["approved"])
	assert.Equal(t, 1, got.ByStatus["under_employee_review"])
	require.Len(t, got.Branches, 2)

	manager := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleBranchManager}
	_, err = svc.Overview(context.Background(), manager)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
