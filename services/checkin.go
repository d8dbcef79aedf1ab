package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"activity-hub/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/skip2/go-qrcode"
)

const (
	checkInAudience = "check-in"
	checkInIssuer   = "activity-hub"
)

type checkInClaims struct {
	ActivityRef string `json:"ref"`
	jwt.RegisteredClaims
}

// CheckInService issues signed attendance tokens and redeems them into approved→attended.
type CheckInService struct {
	Ledger *RegistrationService
	Secret []byte
	TTL    time.Duration
	Clock  clockwork.Clock
}

func NewCheckInService(ledger *RegistrationService, secret string, ttl time.Duration) *CheckInService {
	return &CheckInService{
		Ledger: ledger,
		Secret: []byte(secret),
		TTL:    ttl,
		Clock:  clockwork.NewRealClock(),
	}
}

// IssueToken signs a token for an approved inscription.
func (s *CheckInService) IssueToken(ins models.Inscription) (string, error) {
	if ins.Status != models.InscriptionApproved {
		return "", fmt.Errorf("%w: check-in needs an approved inscription, got %s", ErrInvalidTransition, ins.Status)
	}
	now := s.Clock.Now()
	claims := checkInClaims{
		ActivityRef: ins.Ref().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ins.ID,
			Issuer:    checkInIssuer,
			Audience:  jwt.ClaimStrings{checkInAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// QRCode renders token as a PNG of size×size pixels.
func (s *CheckInService) QRCode(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}

func (s *CheckInService) parse(token string) (checkInClaims, error) {
	var claims checkInClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(checkInAudience),
		jwt.WithIssuer(checkInIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Clock.Now),
	)
	if err != nil {
		return claims, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return claims, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

// Redeem validates token and marks its inscription attended.
func (s *CheckInService) Redeem(ctx context.Context, token string) (TransitionResult, error) {
	claims, err := s.parse(token)
	if err != nil {
		return TransitionResult{}, err
	}
	result, err := s.Ledger.SetStatus(ctx, claims.Subject, models.InscriptionAttended)
	if errors.Is(err, ErrInscriptionNotFound) {
		return result, fmt.Errorf("%w: unknown inscription", ErrTokenInvalid)
	}
	return result, err
}
