// Package handler wires the beneficiary profile endpoints. Profile edits sync
// the registration's completion percentage and demographic snapshot while the
// registration is still in profile_incomplete; after submission the
// registration snapshot is frozen and only the member record changes.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"takaful/internal/member"
	regmodels "takaful/internal/registration/models"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/httputil"
	"takaful/pkg/requestcontext"
)

// Service defines the interface for member profile operations.
type Service interface {
	Get(ctx context.Context, actor domain.Actor, id domain.MemberID) (*member.Member, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, in member.ProfileInput) (*member.Member, error)
}

// RegistrationSync is the slice of the registration service used to keep the
// registration in step with profile edits.
type RegistrationSync interface {
	GetByMember(ctx context.Context, actor domain.Actor, memberID domain.MemberID) (*regmodels.Registration, error)
	SetProfileCompletion(ctx context.Context, actor domain.Actor, id domain.RegistrationID, pct int, snap *regmodels.Snapshot) (*regmodels.Registration, error)
}

// Handler wires member endpoints to the member service.
type Handler struct {
	service       Service
	registrations RegistrationSync
	logger        *slog.Logger
}

func New(service Service, registrations RegistrationSync, logger *slog.Logger) *Handler {
	return &Handler{service: service, registrations: registrations, logger: logger}
}

// Register mounts the beneficiary profile routes. The router guards the group
// with beneficiary auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/members/me", h.HandleGetOwn)
	r.Put("/members/me", h.HandleUpdateProfile)
}

// ProfileResponse is the profile plus its computed completion.
type ProfileResponse struct {
	*member.Member
	ProfileCompletion int `json:"profile_completion"`
}

// UpdateProfileRequest is the HTTP request body for PUT /members/me.
type UpdateProfileRequest struct {
	FullName          string `json:"full_name"`
	NationalID        string `json:"national_id"`
	Email             string `json:"email"`
	City              string `json:"city"`
	DisabilityType    string `json:"disability_type"`
	EmploymentStatus  string `json:"employment_status"`
	PreferredBranchID string `json:"preferred_branch_id"`

	parsedBranchID domain.BranchID
}

func (r *UpdateProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.NationalID) > 20 {
		return dErrors.New(dErrors.CodeBadRequest, "national_id must be at most 20 characters")
	}
	if raw := strings.TrimSpace(r.PreferredBranchID); raw != "" {
		branchID, err := domain.ParseBranchID(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "preferred_branch_id must be a valid UUID")
		}
		r.parsedBranchID = branchID
	}
	return nil
}

func (h *Handler) HandleGetOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	m, err := h.service.Get(ctx, actor, actor.MemberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProfileResponse{Member: m, ProfileCompletion: m.CompletionPercent()})
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdateProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	m, err := h.service.UpdateProfile(ctx, actor, member.ProfileInput{
		FullName:          req.FullName,
		NationalID:        req.NationalID,
		Email:             req.Email,
		City:              req.City,
		DisabilityType:    req.DisabilityType,
		EmploymentStatus:  req.EmploymentStatus,
		PreferredBranchID: req.parsedBranchID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.syncRegistration(ctx, actor, m); err != nil {
		h.logger.ErrorContext(ctx, "registration sync after profile edit failed",
			"request_id", requestID,
			"member_id", m.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ProfileResponse{Member: m, ProfileCompletion: m.CompletionPercent()})
}

// syncRegistration pushes the new completion and snapshot into an open
// profile_incomplete registration. Later stages keep their frozen snapshot.
func (h *Handler) syncRegistration(ctx context.Context, actor domain.Actor, m *member.Member) error {
	reg, err := h.registrations.GetByMember(ctx, actor, m.ID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if reg.Status != regmodels.StatusProfileIncomplete {
		return nil
	}

	snap := &regmodels.Snapshot{
		FullName:         m.FullName,
		NationalID:       m.NationalID,
		Phone:            m.Phone,
		Email:            m.Email,
		City:             m.City,
		DisabilityType:   m.DisabilityType,
		EmploymentStatus: m.EmploymentStatus,
		BranchID:         m.PreferredBranchID,
	}
	_, err = h.registrations.SetProfileCompletion(ctx, actor, reg.ID, m.CompletionPercent(), snap)
	return err
}
