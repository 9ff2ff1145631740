// Package token issues and verifies the HMAC-signed access tokens carried on
// every authenticated request. Claims embed the full actor (role, branch,
// member) so request handling never needs a user lookup.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
)

// Claims are the JWT claims for access tokens.
type Claims struct {
	Role     string `json:"role"`
	BranchID string `json:"branch_id,omitempty"`
	MemberID string `json:"member_id,omitempty"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies access tokens.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey, issuer string, ttl time.Duration) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// TTL returns the access token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// IssueAccessToken signs a token for the actor.
func (s *Service) IssueAccessToken(actor domain.Actor, now time.Time) (string, error) {
	claims := Claims{
		Role: string(actor.Role),
		Name: actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if !actor.BranchID.IsNil() {
		claims.BranchID = actor.BranchID.String()
	}
	if !actor.MemberID.IsNil() {
		claims.MemberID = actor.MemberID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// VerifyAccessToken validates a token and reconstructs the actor. Implements
// the middleware TokenVerifier interface.
func (s *Service) VerifyAccessToken(tokenString string) (domain.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}

	actor := domain.Actor{ID: userID, Role: role, Name: claims.Name}
	if claims.BranchID != "" {
		branchID, err := domain.ParseBranchID(claims.BranchID)
		if err != nil {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token branch")
		}
		actor.BranchID = branchID
	}
	if claims.MemberID != "" {
		memberID, err := domain.ParseMemberID(claims.MemberID)
		if err != nil {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token member")
		}
		actor.MemberID = memberID
	}
	return actor, nil
}
