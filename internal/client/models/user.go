// Package models defines the identity and profile types shared by the
// session synchronizer, backend adapters, and local store.
package models

import (
	"strings"
	"time"

	"github.com/readyinterview/client-go/internal/common"
)

// Role classifies a user's place in the platform. Kept as a string for easy
// persistence and transport.
type Role string

const (
	RoleInterviewee Role = "interviewee"
	RoleInterviewer Role = "interviewer"
	RoleAdmin       Role = "admin"
)

// DefaultRole is applied whenever a profile document is missing or
// unreadable. A signed-in user never carries an empty role.
const DefaultRole = RoleInterviewee

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleInterviewee, RoleInterviewer, RoleAdmin:
		return true
	}
	return false
}

// Metadata carries the backend's account timestamps.
type Metadata struct {
	CreationTime   time.Time `json:"creationTime"`
	LastSignInTime time.Time `json:"lastSignInTime"`
}

// Principal is the authenticated identity as reported by the backend auth
// subsystem, before any profile-document merge.
type Principal struct {
	UID           string   `json:"uid"`
	Email         string   `json:"email"`
	DisplayName   string   `json:"displayName"`
	EmailVerified bool     `json:"emailVerified"`
	Metadata      Metadata `json:"metadata"`
}

// ProfileDocument is the per-user record stored in the backend's document
// subsystem, keyed by principal UID. Pointer fields distinguish "absent"
// from "set to zero" so merge writes only touch supplied fields.
type ProfileDocument struct {
	Email         string     `json:"email,omitempty"`
	DisplayName   string     `json:"displayName,omitempty"`
	Role          *Role      `json:"role,omitempty"`
	PhotoURL      *string    `json:"photoURL,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	RecoveryEmail *string    `json:"recoveryEmail,omitempty"`
	Status        string     `json:"status,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// User is the reconciled value the rest of the application consumes:
// a Principal merged with its ProfileDocument.
//
// PhotoURL is always nil by policy; transient blob-scheme URLs are
// stripped before they can reach state or storage.
type User struct {
	UID           string   `json:"uid"`
	Email         string   `json:"email"`
	DisplayName   string   `json:"displayName"`
	Role          Role     `json:"role"`
	EmailVerified bool     `json:"emailVerified"`
	PhotoURL      *string  `json:"photoURL"`
	Metadata      Metadata `json:"metadata"`
}

// MergeUser builds the application-facing User from a principal and its
// profile document. doc may be nil (degraded mode); the role then defaults.
func MergeUser(p *Principal, doc *ProfileDocument) *User {
	u := &User{
		UID:           p.UID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		Role:          DefaultRole,
		EmailVerified: p.EmailVerified,
		PhotoURL:      nil,
		Metadata:      p.Metadata,
	}
	if doc == nil {
		return u
	}
	if doc.Role != nil && doc.Role.Valid() {
		u.Role = *doc.Role
	}
	if doc.DisplayName != "" {
		u.DisplayName = doc.DisplayName
	}
	return u
}

// IsBlobURL reports whether s carries the transient tab-local URL scheme.
func IsBlobURL(s string) bool {
	return strings.HasPrefix(s, common.BlobURLPrefix)
}
