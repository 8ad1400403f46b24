package session

import "github.com/readyinterview/client-go/internal/client/models"

// AuthState is the single derived view of the current session. The
// Manager is its only writer; everything else reads a copy through
// Snapshot or Subscribe and requests changes through the Manager's
// operations.
type AuthState struct {
	// User is nil while signed out or unresolved.
	User *models.User

	// Loading is true while an operation (login, signup, update, delete)
	// is in flight.
	Loading bool

	// InitialLoading is true only until the very first auth-state
	// resolution completes. It gates whether dependent UI renders at all.
	InitialLoading bool

	// Err is the most recent operation or resolution failure, cleared at
	// the start of the next operation. Its Error() text is user-facing.
	Err error

	// IsOffline is set when the profile document accompanying a sign-in
	// event could not be read; the session then runs on best-effort auth
	// fields alone.
	IsOffline bool
}

// SignedIn reports whether the state carries a resolved user.
func (s AuthState) SignedIn() bool { return s.User != nil }

// clone returns a copy safe to hand to readers; the User record is
// duplicated so no consumer can alias the Manager's copy.
func (s AuthState) clone() AuthState {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
