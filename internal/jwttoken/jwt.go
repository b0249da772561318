// Package jwttoken implements the bearer-token side of the authorization
// capability: it signs member tokens and verifies them back into a member
// identity for the middleware to inject.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
	"commune/internal/platform/middleware"
)

// Claims are the JWT claims carried by commune member tokens.
type Claims struct {
	MemberID string `json:"member_id"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateMemberToken signs a token attributing requests to member.
func (s *Service) GenerateMemberToken(member id.MemberID, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		MemberID: member.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns middleware claims.
func (s *Service) ValidateToken(tokenString string) (*middleware.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid token claims")
	}

	return &middleware.Claims{MemberID: claims.MemberID}, nil
}
