/*
Package auth issues and validates the bearer tokens that guard the rewrite
API. Tokens are HS256 JWTs carrying the user id as subject, so handlers can
scope profile and memory access to the authenticated user.
*/
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/*
Service signs and validates tokens with a shared secret.
*/
type Service struct {
	signingKey  []byte
	tokenTTL    time.Duration
	rateLimiter *RateLimiter
}

type ServiceOption func(*Service)

func NewService(signingKey string, options ...ServiceOption) *Service {
	service := &Service{
		signingKey:  []byte(signingKey),
		tokenTTL:    time.Hour,
		rateLimiter: NewRateLimiter(100, time.Minute),
	}

	for _, option := range options {
		option(service)
	}

	return service
}

func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(service *Service) { service.tokenTTL = ttl }
}

func WithRateLimit(rate int64, interval time.Duration) ServiceOption {
	return func(service *Service) {
		service.rateLimiter = NewRateLimiter(rate, interval)
	}
}

/*
GenerateToken issues a token for a user id.
*/
func (service *Service) GenerateToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(service.tokenTTL).Unix(),
	})

	signed, err := token.SignedString(service.signingKey)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}

	return signed, nil
}

/*
Authenticate validates an Authorization header value and returns the user
id it was issued for. The rate limit applies before any parsing so floods
of bad tokens stay cheap.
*/
func (service *Service) Authenticate(authHeader string) (string, error) {
	if !service.rateLimiter.Allow() {
		return "", fmt.Errorf("auth: rate limit exceeded")
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenStr == "" {
		return "", fmt.Errorf("auth: missing bearer token")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return service.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("auth: token expired")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("auth: token missing subject")
	}

	return subject, nil
}
