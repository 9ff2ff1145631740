// Package service implements the two login flows: OTP over SMS for
// beneficiaries and email/password for staff. Both end in the same place, a
// signed access token carrying the actor.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"takaful/internal/audit"
	"takaful/internal/auth/otp"
	"takaful/internal/member"
	regmodels "takaful/internal/registration/models"
	"takaful/internal/user"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/sentinel"
	"takaful/pkg/requestcontext"
)

// phonePattern accepts E.164-style numbers: optional +, 8 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// TokenIssuer signs access tokens for authenticated actors.
type TokenIssuer interface {
	IssueAccessToken(actor domain.Actor, now time.Time) (string, error)
	TTL() time.Duration
}

// Members is the slice of the member service used during OTP login.
type Members interface {
	RegisterOrGet(ctx context.Context, phone string) (*member.Member, bool, error)
}

// Registrations opens the review cycle for first-time members.
type Registrations interface {
	Create(ctx context.Context, memberID domain.MemberID, branchID domain.BranchID, snap regmodels.Snapshot) (*regmodels.Registration, error)
}

// StaffAuthenticator verifies staff credentials.
type StaffAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
}

// AuditPublisher appends audit events with fail-closed semantics.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Sender delivers the plaintext code to the beneficiary's phone. The code
// exists in memory only between generation and this call; stores and logs
// only ever see the hash.
type Sender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// Config tunes the OTP challenge lifecycle.
type Config struct {
	OTPTTL       time.Duration
	ResendWindow time.Duration
	MaxAttempts  int
}

// DefaultConfig matches the values the mobile clients are built around.
func DefaultConfig() Config {
	return Config{
		OTPTTL:       5 * time.Minute,
		ResendWindow: time.Minute,
		MaxAttempts:  5,
	}
}

// Service orchestrates both login flows.
type Service struct {
	codes   otp.Store
	tokens  TokenIssuer
	members Members
	regs    Registrations
	staff   StaffAuthenticator
	audit   AuditPublisher
	sender  Sender
	logger  *slog.Logger
	cfg     Config
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithSender sets the SMS delivery channel. Without it codes are stored but
// not delivered, which only makes sense in tests.
func WithSender(sender Sender) Option {
	return func(s *Service) { s.sender = sender }
}

func New(codes otp.Store, tokens TokenIssuer, members Members, regs Registrations,
	staff StaffAuthenticator, auditPub AuditPublisher, logger *slog.Logger, cfg Config, opts ...Option) *Service {

	if cfg.OTPTTL == 0 {
		cfg = DefaultConfig()
	}
	s := &Service{
		codes:   codes,
		tokens:  tokens,
		members: members,
		regs:    regs,
		staff:   staff,
		audit:   auditPub,
		logger:  logger,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestOTP generates and stores a login code for the phone number. Returns
// the challenge TTL for the client countdown. Resends inside the throttle
// window are rejected.
func (s *Service) RequestOTP(ctx context.Context, phone string) (time.Duration, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return 0, err
	}

	allowed, err := s.codes.MarkSent(ctx, phone, s.cfg.ResendWindow)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue code")
	}
	if !allowed {
		return 0, dErrors.New(dErrors.CodeConflict, "a code was sent recently, wait before requesting another")
	}

	code, err := generateCode()
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	if err := s.codes.SaveCode(ctx, phone, hashCode(code), s.cfg.OTPTTL); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue code")
	}

	if s.sender != nil {
		if err := s.sender.SendCode(ctx, phone, code); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deliver code")
		}
	}

	if s.audit != nil {
		if err := s.audit.Emit(ctx, audit.Event{
			Action: audit.ActionOTPRequested,
			Note:   maskPhone(phone),
		}); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "audit trail write failed")
		}
	}
	return s.cfg.OTPTTL, nil
}

// VerifyResult is what a successful login returns.
type VerifyResult struct {
	Token     string
	ExpiresIn time.Duration
	Actor     domain.Actor
	// NewMember reports whether this verification created the member and its
	// registration (first login).
	NewMember bool
}

// VerifyOTP checks the code and logs the beneficiary in. The first successful
// verification for a phone number creates the member and opens their
// registration.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*VerifyResult, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)

	stored, err := s.codes.LoadCode(ctx, phone)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "code is invalid or expired")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify code")
	}

	attempts, err := s.codes.CountAttempt(ctx, phone)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify code")
	}
	if attempts > s.cfg.MaxAttempts {
		_ = s.codes.Clear(ctx, phone)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "too many attempts, request a new code")
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(hashCode(code))) != 1 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "code is invalid or expired")
	}
	if err := s.codes.Clear(ctx, phone); err != nil {
		s.logger.WarnContext(ctx, "failed to clear verified otp", "error", err)
	}

	m, created, err := s.members.RegisterOrGet(ctx, phone)
	if err != nil {
		return nil, err
	}
	if created {
		_, err := s.regs.Create(ctx, m.ID, domain.BranchID{}, regmodels.Snapshot{Phone: phone})
		if err != nil && !dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
	}

	// Beneficiaries are not staff users; the member UUID doubles as the
	// actor ID so audit stamps stay traceable.
	actor := domain.Actor{
		ID:       domain.UserID(m.ID),
		Role:     domain.RoleBeneficiary,
		MemberID: m.ID,
		Name:     m.FullName,
	}
	token, err := s.tokens.IssueAccessToken(actor, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		if err := s.audit.Emit(ctx, audit.Event{
			Action:    audit.ActionOTPVerified,
			ActorID:   actor.ID.String(),
			ActorRole: string(actor.Role),
			MemberID:  m.ID.String(),
			Note:      maskPhone(phone),
		}); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit trail write failed")
		}
	}

	return &VerifyResult{
		Token:     token,
		ExpiresIn: s.tokens.TTL(),
		Actor:     actor,
		NewMember: created,
	}, nil
}

// Login authenticates staff with email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*VerifyResult, error) {
	u, err := s.staff.Authenticate(ctx, email, password)
	if err != nil {
		if s.audit != nil && dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			if aerr := s.audit.Emit(ctx, audit.Event{
				Action: audit.ActionLoginFailed,
				Note:   strings.ToLower(strings.TrimSpace(email)),
			}); aerr != nil {
				return nil, dErrors.Wrap(aerr, dErrors.CodeInternal, "audit trail write failed")
			}
		}
		return nil, err
	}

	actor := u.Actor()
	token, err := s.tokens.IssueAccessToken(actor, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		if err := s.audit.Emit(ctx, audit.Event{
			Action:    audit.ActionLoginSucceeded,
			ActorID:   actor.ID.String(),
			ActorRole: string(actor.Role),
			ActorName: actor.Name,
		}); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit trail write failed")
		}
	}

	return &VerifyResult{Token: token, ExpiresIn: s.tokens.TTL(), Actor: actor}, nil
}

func normalizePhone(phone string) (string, error) {
	phone = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if !phonePattern.MatchString(phone) {
		return "", dErrors.New(dErrors.CodeBadRequest, "phone must be 8-15 digits, optionally prefixed with +")
	}
	return phone, nil
}

// generateCode returns a 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// maskPhone keeps the last two digits for audit readability.
func maskPhone(phone string) string {
	if len(phone) <= 2 {
		return "**"
	}
	return strings.Repeat("*", len(phone)-2) + phone[len(phone)-2:]
}
