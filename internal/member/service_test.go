package member

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
)

func newService() *Service {
	return NewService(NewInMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterOrGetIsIdempotentPerPhone(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	m1, created, err := svc.RegisterOrGet(ctx, "+966500000001")
	require.NoError(t, err)
	assert.True(t, created)

	m2, created, err := svc.RegisterOrGet(ctx, "+966500000001")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m1.ID, m2.ID)

	m3, created, err := svc.RegisterOrGet(ctx, "+966500000002")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, m1.ID, m3.ID)

	_, _, err = svc.RegisterOrGet(ctx, "   ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestCompletionPercent(t *testing.T) {
	m, _, err := newService().RegisterOrGet(context.Background(), "+966500000001")
	require.NoError(t, err)
	assert.Equal(t, 0, m.CompletionPercent(), "a bare member starts at zero")

	m.FullName = "نورة عبدالله"
	m.NationalID = "1098765432"
	m.Email = "noura@example.com"
	assert.Greater(t, m.CompletionPercent(), 0)
	assert.Less(t, m.CompletionPercent(), 100)

	m.City = "جدة"
	m.DisabilityType = "حركية"
	m.EmploymentStatus = "باحث عن عمل"
	m.PreferredBranchID = domain.NewBranchID()
	assert.Equal(t, 100, m.CompletionPercent())
}

func TestUpdateProfile(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	m, _, err := svc.RegisterOrGet(ctx, "+966500000001")
	require.NoError(t, err)
	actor := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleBeneficiary, MemberID: m.ID}

	branch := domain.NewBranchID()
	updated, err := svc.UpdateProfile(ctx, actor, ProfileInput{
		FullName:          "نورة عبدالله",
		NationalID:        "1098765432",
		Email:             "noura@example.com",
		City:              "جدة",
		DisabilityType:    "حركية",
		EmploymentStatus:  "باحث عن عمل",
		PreferredBranchID: branch,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, updated.CompletionPercent())
	assert.Equal(t, "+966500000001", updated.Phone, "phone never changes")
	assert.Equal(t, branch, updated.PreferredBranchID)

	stranger := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleBeneficiary, MemberID: domain.NewMemberID()}
	got, err := svc.Get(ctx, stranger, m.ID)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	staff := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleEmployee}
	got, err = svc.Get(ctx, staff, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}
