package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takaful/internal/audit"
	authhandler "takaful/internal/auth/handler"
	"takaful/internal/auth/otp"
	authservice "takaful/internal/auth/service"
	"takaful/internal/auth/token"
	"takaful/internal/branch"
	branchhandler "takaful/internal/branch/handler"
	"takaful/internal/member"
	memberhandler "takaful/internal/member/handler"
	"takaful/internal/ratelimit"
	reghandler "takaful/internal/registration/handler"
	regservice "takaful/internal/registration/service"
	regstore "takaful/internal/registration/store"
	"takaful/internal/stats"
	"takaful/internal/user"
	userhandler "takaful/internal/user/handler"
	"takaful/pkg/domain"
)

// captureSender hands delivered codes back to the test instead of an SMS gateway.
type captureSender struct {
	codes map[string]string
}

func (c *captureSender) SendCode(_ context.Context, phone, code string) error {
	c.codes[phone] = code
	return nil
}

// TestRouter drives the assembled route tree end to end: public login flow,
// guard layering per role group, and the login throttle. Subtests share one
// router and run in order.
func TestRouter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := &captureSender{codes: make(map[string]string)}

	registrations := regstore.NewInMemory()
	branches := branch.NewInMemoryStore()
	auditPub := audit.NewPublisher(audit.NewInMemory(), logger)

	regSvc := regservice.New(registrations, logger, regservice.WithAudit(auditPub))
	branchSvc := branch.NewService(branches, auditPub, logger)
	userSvc := user.NewService(user.NewInMemoryStore(), auditPub, logger)
	memberSvc := member.NewService(member.NewInMemoryStore(), logger)
	tokens := token.NewService("router-test-key", "takaful", time.Hour)
	authSvc := authservice.New(otp.NewInMemoryStore(), tokens, memberSvc, regSvc, userSvc,
		auditPub, logger, authservice.DefaultConfig(), authservice.WithSender(sender))

	router := NewRouter(Deps{
		Logger:        logger,
		Verifier:      tokens,
		RateLimiter:   ratelimit.NewMiddleware(ratelimit.NewInMemoryStore(), logger),
		Auth:          authhandler.New(authSvc, logger),
		Registrations: reghandler.New(regSvc, logger),
		Members:       memberhandler.New(memberSvc, regSvc, logger),
		Branches:      branchhandler.New(branchSvc, logger),
		Users:         userhandler.New(userSvc, logger),
		Stats:         stats.NewHandler(stats.New(registrations, branches, logger), logger),
		Health:        func() error { return nil },
	})

	do := func(method, target, body, bearer string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("operational endpoints are public", func(t *testing.T) {
		rec := do(http.MethodGet, "/healthz", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ok")

		rec = do(http.MethodGet, "/metrics", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("guarded routes reject anonymous and wrong-role callers", func(t *testing.T) {
		rec := do(http.MethodGet, "/registrations", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		beneficiary, err := tokens.IssueAccessToken(domain.Actor{
			ID:       domain.NewUserID(),
			Role:     domain.RoleBeneficiary,
			MemberID: domain.NewMemberID(),
		}, time.Now())
		require.NoError(t, err)
		rec = do(http.MethodGet, "/registrations", "", beneficiary)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff token reaches the review surface", func(t *testing.T) {
		manager, err := tokens.IssueAccessToken(domain.Actor{
			ID:       domain.NewUserID(),
			Role:     domain.RoleBranchManager,
			BranchID: domain.NewBranchID(),
		}, time.Now())
		require.NoError(t, err)

		rec := do(http.MethodGet, "/registrations", "", manager)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(http.MethodGet, "/stats/branch", "", manager)
		assert.Equal(t, http.StatusOK, rec.Code)

		// Branch administration stays admin-only.
		rec = do(http.MethodPost, "/branches", `{"name":"فرع الرياض","city":"الرياض"}`, manager)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("otp flow through the public routes opens a registration", func(t *testing.T) {
		const phone = "+966500000001"

		rec := do(http.MethodPost, "/auth/otp/request", `{"phone":"`+phone+`"}`, "")
		require.Equal(t, http.StatusAccepted, rec.Code)
		code, ok := sender.codes[phone]
		require.True(t, ok, "the sender must receive the code")

		rec = do(http.MethodPost, "/auth/otp/verify", `{"phone":"`+phone+`","code":"`+code+`"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			AccessToken string `json:"access_token"`
			Role        string `json:"role"`
			NewMember   bool   `json:"new_member"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "beneficiary", res.Role)
		assert.True(t, res.NewMember)

		rec = do(http.MethodGet, "/registrations/me", "", res.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "profile_incomplete")
	})

	t.Run("login throttle caps the auth routes per client", func(t *testing.T) {
		var throttled *httptest.ResponseRecorder
		for range 12 {
			rec := do(http.MethodPost, "/auth/login", `{"email":"nobody@example.com","password":"wrong"}`, "")
			assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
			if rec.Code == http.StatusTooManyRequests {
				throttled = rec
				break
			}
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		}
		require.NotNil(t, throttled, "the throttle must trip within the window")
		assert.NotEmpty(t, throttled.Header().Get("Retry-After"))
	})
}
