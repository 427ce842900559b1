package guard

import (
	"github.com/gdsc-dev/portalclient/session"
)

const (
	DefaultLoginPath        = "/auth/login"
	DefaultUnauthorizedPath = "/unauthorized"

	// ReturnParam carries the originally requested path to the login
	// target so navigation resumes after authentication.
	ReturnParam = "returnUrl"
)

// Requirement is the role set a protected navigation target demands.
// A nil or empty requirement only demands authentication.
type Requirement struct {
	Roles []session.Role
}

// Decision is the synchronous outcome of a navigation check. The caller
// executes the redirect; the authorizer never blocks on the network.
type Decision struct {
	Allow      bool
	RedirectTo string
	ReturnPath string
}

// Authorizer gates protected navigation against the latest session
// snapshot.
type Authorizer struct {
	sessions         *session.Store
	loginPath        string
	unauthorizedPath string
}

func New(sessions *session.Store) *Authorizer {
	return &Authorizer{
		sessions:         sessions,
		loginPath:        DefaultLoginPath,
		unauthorizedPath: DefaultUnauthorizedPath,
	}
}

func (a *Authorizer) WithPaths(loginPath, unauthorizedPath string) *Authorizer {
	if loginPath != "" {
		a.loginPath = loginPath
	}
	if unauthorizedPath != "" {
		a.unauthorizedPath = unauthorizedPath
	}
	return a
}

// Authorize evaluates a navigation to target under the given requirement.
// The super admin role bypasses every role requirement; authentication is
// still required.
func (a *Authorizer) Authorize(target string, requirement *Requirement) Decision {
	current := a.sessions.Current()
	if !current.Authenticated {
		return Decision{RedirectTo: a.loginPath, ReturnPath: target}
	}
	if requirement == nil || len(requirement.Roles) == 0 {
		return Decision{Allow: true}
	}
	if current.HasRole(session.RoleSuperAdmin) {
		return Decision{Allow: true}
	}
	if current.HasAnyRole(requirement.Roles...) {
		return Decision{Allow: true}
	}
	return Decision{RedirectTo: a.unauthorizedPath}
}
