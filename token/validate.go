package token

import (
	"encoding/json"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
)

// Validator reports token validity from the embedded expiry claim without
// calling the network. The payload is decoded unverified: this is a local
// optimization to skip requests that would bounce anyway, not a security
// boundary - the server still verifies the signature.
type Validator struct {
	now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// IsValid reports whether the token carries an expiry strictly in the
// future. A token expiring exactly now is already expired. Malformed
// tokens are invalid, never an error.
func (v *Validator) IsValid(tokenValue string) bool {
	exp, ok := v.ExpiresAt(tokenValue)
	if !ok {
		return false
	}
	return exp.After(v.now())
}

// ExpiresAt returns the token's expiry claim, if one can be decoded.
func (v *Validator) ExpiresAt(tokenValue string) (time.Time, bool) {
	if tokenValue == "" {
		return time.Time{}, false
	}
	parser := jwtgo.NewParser()
	t, _, err := parser.ParseUnverified(tokenValue, jwtgo.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	claims, ok := t.Claims.(jwtgo.MapClaims)
	if !ok {
		return time.Time{}, false
	}
	exp := claimUnixTime(claims["exp"])
	if exp.IsZero() {
		return time.Time{}, false
	}
	return exp, true
}

func claimUnixTime(v any) time.Time {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0).UTC()
	case int64:
		return time.Unix(t, 0).UTC()
	case int:
		return time.Unix(int64(t), 0).UTC()
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return time.Time{}
		}
		return time.Unix(i, 0).UTC()
	default:
		return time.Time{}
	}
}
