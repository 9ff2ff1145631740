// Package handler wires the login endpoints. These are the only unguarded
// routes besides health and metrics.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"takaful/internal/auth/service"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/httputil"
	"takaful/pkg/requestcontext"
)

// Service defines the interface for authentication operations.
type Service interface {
	RequestOTP(ctx context.Context, phone string) (time.Duration, error)
	VerifyOTP(ctx context.Context, phone, code string) (*service.VerifyResult, error)
	Login(ctx context.Context, email, password string) (*service.VerifyResult, error)
}

// Handler wires auth endpoints to the auth service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public login routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/otp/request", h.HandleRequestOTP)
	r.Post("/auth/otp/verify", h.HandleVerifyOTP)
	r.Post("/auth/login", h.HandleLogin)
}

// RequestOTPRequest is the HTTP request body for POST /auth/otp/request.
type RequestOTPRequest struct {
	Phone string `json:"phone"`
}

func (r *RequestOTPRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Phone) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "phone is required")
	}
	return nil
}

// VerifyOTPRequest is the HTTP request body for POST /auth/otp/verify.
type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (r *VerifyOTPRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Phone) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "phone is required")
	}
	if strings.TrimSpace(r.Code) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "code is required")
	}
	return nil
}

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}
	return nil
}

// TokenResponse is the login success payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        string `json:"role"`
	Name        string `json:"name,omitempty"`
	MemberID    string `json:"member_id,omitempty"`
	BranchID    string `json:"branch_id,omitempty"`
	NewMember   bool   `json:"new_member,omitempty"`
}

func tokenResponse(res *service.VerifyResult) TokenResponse {
	out := TokenResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(res.ExpiresIn.Seconds()),
		Role:        string(res.Actor.Role),
		Name:        res.Actor.Name,
		NewMember:   res.NewMember,
	}
	if !res.Actor.MemberID.IsNil() {
		out.MemberID = res.Actor.MemberID.String()
	}
	if !res.Actor.BranchID.IsNil() {
		out.BranchID = res.Actor.BranchID.String()
	}
	return out
}

func (h *Handler) HandleRequestOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RequestOTPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ttl, err := h.service.RequestOTP(ctx, req.Phone)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"expires_in": int64(ttl.Seconds()),
	})
}

func (h *Handler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyOTPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.VerifyOTP(ctx, req.Phone, req.Code)
	if err != nil {
		h.logger.WarnContext(ctx, "otp verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse(res))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "staff login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse(res))
}
