package session

import "encoding/json"

// Session is the current authenticated identity. The zero value is the
// unauthenticated empty session.
type Session struct {
	UserID        string   `json:"user_id,omitempty"`
	Username      string   `json:"username,omitempty"`
	Roles         []Role   `json:"roles,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
	Authenticated bool     `json:"-"`
}

func (s Session) HasRole(role Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the session holds at least one of the given
// roles. An empty requirement passes.
func (s Session) HasAnyRole(roles ...Role) bool {
	if len(roles) == 0 {
		return true
	}
	set := make(map[Role]struct{}, len(s.Roles))
	for _, r := range s.Roles {
		set[r] = struct{}{}
	}
	for _, need := range roles {
		if need == "" {
			continue
		}
		if _, ok := set[need]; ok {
			return true
		}
	}
	return false
}

// Record is the shape persisted alongside the credential pair, used to
// rebuild the session on startup without a network round-trip.
type Record struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions,omitempty"`
}

func (r Record) Session() Session {
	return Session{
		UserID:        r.UserID,
		Username:      r.Username,
		Roles:         NormalizeRoles(r.Roles),
		Permissions:   r.Permissions,
		Authenticated: true,
	}
}

func DecodeRecord(raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
