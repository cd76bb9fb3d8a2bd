package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMisconfigured = errors.New("auth config invalid")
)

// Principal - 검증된 API 토큰의 주체
type Principal struct {
	Subject   string
	ExpiresAt time.Time
}

// AuthService - /api 보호용 HS256 bearer 토큰 발급/검증
type AuthService struct {
	jwtSecret []byte
	now       func() time.Time
}

type authClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

func NewAuthService(secret string) (*AuthService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: API_JWT_SECRET is required", ErrMisconfigured)
	}
	return &AuthService{jwtSecret: []byte(secret), now: time.Now}, nil
}

// IssueToken - subject에 대한 access token 발급 (ttl<=0이면 24h)
func (s *AuthService) IssueToken(subject string, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := authClaims{
		Scope: "api",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccessToken - 서명/만료 검증 후 Principal 반환
func (s *AuthService) ParseAccessToken(tokenStr string) (*Principal, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	p := &Principal{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}
