package devserver

import (
	"errors"
	"fmt"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrInvalidClaims      = errors.New("devserver: invalid claims")
	ErrInvalidTokenType   = errors.New("devserver: invalid token type")
	ErrUnexpectedTokenAlg = errors.New("devserver: unexpected signing method")
)

// signer issues and validates the HS256 token pairs the stub API hands
// out. It is the server-side mirror of the SDK's client-only validator.
type signer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type signedClaims struct {
	Subject   string
	TokenType string
	Roles     []string
	ExpiresAt time.Time
}

func newSigner(secret string, accessTTL, refreshTTL time.Duration) *signer {
	return &signer{
		key:        []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *signer) pair(subject string, roles []string) (access, refresh string, err error) {
	now := s.now().UTC()
	access, err = s.sign(subject, tokenTypeAccess, now.Add(s.accessTTL), roles)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.sign(subject, tokenTypeRefresh, now.Add(s.refreshTTL), nil)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *signer) sign(subject, tokenType string, expiresAt time.Time, roles []string) (string, error) {
	now := s.now().UTC()
	claims := jwtgo.MapClaims{
		"sub":        subject,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"nbf":        now.Unix(),
		"exp":        expiresAt.Unix(),
		"token_type": tokenType,
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}
	t := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

func (s *signer) validate(tokenValue, expectedType string) (signedClaims, error) {
	t, err := jwtgo.Parse(tokenValue, func(t *jwtgo.Token) (any, error) {
		if _, ok := t.Method.(*jwtgo.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedTokenAlg
		}
		return s.key, nil
	})
	if err != nil {
		return signedClaims{}, err
	}
	if !t.Valid {
		return signedClaims{}, jwtgo.ErrTokenInvalidClaims
	}
	mapClaims, ok := t.Claims.(jwtgo.MapClaims)
	if !ok {
		return signedClaims{}, ErrInvalidClaims
	}

	out := signedClaims{
		Subject:   claimString(mapClaims, "sub"),
		TokenType: claimString(mapClaims, "token_type"),
		Roles:     claimStrings(mapClaims, "roles"),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if out.TokenType == "" {
		return signedClaims{}, ErrInvalidTokenType
	}
	if expectedType != "" && out.TokenType != expectedType {
		return signedClaims{}, fmt.Errorf("%w: got=%s want=%s", ErrInvalidTokenType, out.TokenType, expectedType)
	}
	return out, nil
}

func claimString(claims jwtgo.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func claimStrings(claims jwtgo.MapClaims, key string) []string {
	raw, ok := claims[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
