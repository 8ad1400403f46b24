package guard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/client/services/session"
)

func signedIn(role models.Role) session.AuthState {
	return session.AuthState{User: &models.User{UID: "u1", Role: role}}
}

func signedOut() session.AuthState {
	return session.AuthState{}
}

func TestDecide_InitialLoadingAlwaysRenders(t *testing.T) {
	st := session.AuthState{InitialLoading: true}
	for path, req := range DefaultRoutes {
		require.Empty(t, Decide(st, req), path)
	}
}

func TestDecide_SignedOut(t *testing.T) {
	tests := []struct {
		name string
		req  Requirement
		want string
	}{
		{"protected route redirects to login", Requirement{}, LoginPath},
		{"role route redirects to login", Requirement{RequiredRole: models.RoleAdmin}, LoginPath},
		{"public route renders", Requirement{Public: true}, ""},
		{"public-only route renders", Requirement{Public: true, PublicOnly: true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Decide(signedOut(), tt.req))
		})
	}
}

func TestDecide_SignedIn(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		req  Requirement
		want string
	}{
		{"open route renders", models.RoleInterviewee, Requirement{}, ""},
		{"matching role renders", models.RoleInterviewer, Requirement{RequiredRole: models.RoleInterviewer}, ""},
		{"role mismatch goes to own dashboard", models.RoleInterviewee, Requirement{RequiredRole: models.RoleAdmin}, "/dashboard"},
		{"interviewer off admin route", models.RoleInterviewer, Requirement{RequiredRole: models.RoleAdmin}, "/interviewer"},
		{"admin off interviewee route", models.RoleAdmin, Requirement{RequiredRole: models.RoleInterviewee}, "/admin"},
		{"public-only bounces interviewee", models.RoleInterviewee, Requirement{Public: true, PublicOnly: true}, "/dashboard"},
		{"public-only bounces admin", models.RoleAdmin, Requirement{Public: true, PublicOnly: true}, "/admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Decide(signedIn(tt.role), tt.req))
		})
	}
}

// Every redirect must land on a route that renders for the same state,
// otherwise guards could loop.
func TestDecide_NoRedirectLoops(t *testing.T) {
	states := []session.AuthState{
		signedOut(),
		signedIn(models.RoleInterviewee),
		signedIn(models.RoleInterviewer),
		signedIn(models.RoleAdmin),
	}
	for path, req := range DefaultRoutes {
		for _, st := range states {
			target := Decide(st, req)
			if target == "" {
				continue
			}
			require.Empty(t, Decide(st, For(target)),
				"redirect %s -> %s must render", path, target)
		}
	}
}

func TestDecide_Idempotent(t *testing.T) {
	st := signedIn(models.RoleInterviewee)
	req := Requirement{RequiredRole: models.RoleAdmin}
	first := Decide(st, req)
	require.Equal(t, first, Decide(st, req))
}

func TestFor_UnknownPathIsProtected(t *testing.T) {
	req := For("/nonexistent")
	require.False(t, req.Public)
	require.Equal(t, LoginPath, Decide(signedOut(), req))
}
