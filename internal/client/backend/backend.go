// Package backend defines the consumed contract of the hosted
// identity/document/file service the SDK is built on, and provides the
// HTTP implementation of it. The service itself is a black box: password
// policy, token issuance, and document storage all live on the other side
// of these interfaces.
package backend

import (
	"context"
	"time"

	"github.com/readyinterview/client-go/internal/client/models"
)

// AuthAPI is the identity subsystem. Implementations must be safe for
// concurrent use.
//
// OnAuthChange registers a callback for the asynchronous auth-state
// stream. The callback receives the current principal (nil when signed
// out) once the stream first resolves, and again on every subsequent
// transition. The returned cancel func detaches the callback; it is safe
// to call more than once.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*models.Principal, error)
	SignUp(ctx context.Context, email, password, displayName string) (*models.Principal, error)
	SignInWithIDP(ctx context.Context, providerID, idToken string) (*models.Principal, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	SendEmailVerification(ctx context.Context) error
	Reauthenticate(ctx context.Context, password string) error
	UpdateAuthProfile(ctx context.Context, displayName string, photoURL *string) error
	DeleteAccount(ctx context.Context) error

	// SetPersistence selects durable (survives restarts) vs session-only
	// credential storage for subsequent sign-ins.
	SetPersistence(durable bool)

	OnAuthChange(fn func(*models.Principal)) (cancel func())
}

// DocAPI is the document subsystem: per-user profile documents keyed by
// principal UID.
//
// SetProfile with merge=true leaves fields absent from doc untouched;
// merge=false replaces the whole document. Timestamp fields set to the
// ServerTimestamp marker are stamped by the backend at write time.
type DocAPI interface {
	GetProfile(ctx context.Context, uid string) (*models.ProfileDocument, error)
	SetProfile(ctx context.Context, uid string, doc *models.ProfileDocument, merge bool) error
}

// FileAPI is the file subsystem: binary uploads to a per-user path
// yielding a durable retrieval URL.
type FileAPI interface {
	UploadAvatar(ctx context.Context, uid string, data []byte, contentType string) (string, error)
}

// Service groups the three subsystems the way the hosted SDK exposes them.
type Service interface {
	AuthAPI
	DocAPI
	FileAPI
}

// serverTimestamp is an arbitrary, otherwise-unused instant reserved as a
// write-time marker.
var serverTimestamp = time.Date(1, 1, 1, 0, 0, 0, 1, time.UTC)

// ServerTimestamp returns the marker adapters replace with a
// backend-assigned stamp at write time.
func ServerTimestamp() *time.Time {
	t := serverTimestamp
	return &t
}

// IsServerTimestamp reports whether t is the write-time marker.
func IsServerTimestamp(t *time.Time) bool {
	return t != nil && t.Equal(serverTimestamp)
}

// TokenCache persists the refresh token between runs when durable
// persistence is selected.
type TokenCache interface {
	SaveRefreshToken(ctx context.Context, token string) error
	LoadRefreshToken(ctx context.Context) (string, error)
	ClearRefreshToken(ctx context.Context) error
}

// MemoryTokenCache is a TokenCache that lives and dies with the process.
type MemoryTokenCache struct {
	token string
}

func (m *MemoryTokenCache) SaveRefreshToken(_ context.Context, token string) error {
	m.token = token
	return nil
}

func (m *MemoryTokenCache) LoadRefreshToken(_ context.Context) (string, error) {
	return m.token, nil
}

func (m *MemoryTokenCache) ClearRefreshToken(_ context.Context) error {
	m.token = ""
	return nil
}
