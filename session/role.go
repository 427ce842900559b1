package session

import "strings"

// Role is the canonical role identifier. The backend emits variants like
// "ROLE_ADMIN", "Admin" and "admin" for the same concept; everything is
// normalized once at this boundary so the rest of the system compares
// against a single closed set.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleStaff      Role = "staff"
)

// NormalizeRole maps a raw role string from the wire to its canonical form.
func NormalizeRole(raw string) Role {
	r := strings.TrimSpace(raw)
	r = strings.TrimPrefix(strings.ToUpper(r), "ROLE_")
	return Role(strings.ToLower(r))
}

// NormalizeRoles canonicalizes and de-duplicates a raw role list,
// dropping empties.
func NormalizeRoles(raw []string) []Role {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[Role]struct{}, len(raw))
	out := make([]Role, 0, len(raw))
	for _, v := range raw {
		role := NormalizeRole(v)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
