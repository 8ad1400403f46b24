// Package guard decides redirect-vs-render for routes from the current
// auth state. Decisions are pure functions: no side effects, and
// idempotent under repeated evaluation, so the same state can never
// produce a redirect loop.
package guard

import (
	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/client/services/session"
)

// LoginPath is where unauthenticated visitors of protected routes land.
const LoginPath = "/login"

// Requirement declares what a route needs from the session.
type Requirement struct {
	// Public routes render without a signed-in user.
	Public bool

	// PublicOnly routes (login, signup) redirect signed-in users to
	// their dashboard.
	PublicOnly bool

	// RequiredRole restricts the route to one role. Empty means any
	// signed-in user.
	RequiredRole models.Role
}

// DashboardPath maps a role to its landing page. A role mismatch
// redirects here rather than to an error page.
func DashboardPath(role models.Role) string {
	switch role {
	case models.RoleInterviewer:
		return "/interviewer"
	case models.RoleAdmin:
		return "/admin"
	default:
		return "/dashboard"
	}
}

// Decide returns the path to redirect to, or "" to render in place.
//
// While the first auth resolution is still pending the answer is always
// "render" so the caller can show its loading surface instead of
// bouncing the user around on incomplete information.
func Decide(st session.AuthState, req Requirement) string {
	if st.InitialLoading {
		return ""
	}
	if st.User == nil {
		if req.Public || req.PublicOnly {
			return ""
		}
		return LoginPath
	}
	if req.PublicOnly {
		return DashboardPath(st.User.Role)
	}
	if req.RequiredRole != "" && st.User.Role != req.RequiredRole {
		return DashboardPath(st.User.Role)
	}
	return ""
}

// DefaultRoutes is the application route table. Every redirect target in
// it resolves to "render" for the state that produced the redirect.
var DefaultRoutes = map[string]Requirement{
	LoginPath:      {Public: true, PublicOnly: true},
	"/signup":      {Public: true, PublicOnly: true},
	"/reset":       {Public: true},
	"/dashboard":   {RequiredRole: models.RoleInterviewee},
	"/interviewer": {RequiredRole: models.RoleInterviewer},
	"/admin":       {RequiredRole: models.RoleAdmin},
	"/settings":    {},
	"/profile":     {},
}

// For looks up the requirement for path. Unknown paths are treated as
// protected with no role restriction.
func For(path string) Requirement {
	if req, ok := DefaultRoutes[path]; ok {
		return req
	}
	return Requirement{}
}
