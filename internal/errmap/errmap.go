// Package errmap maps backend error codes to user-facing messages.
// Codes are stable strings reported by the identity backend; anything
// unknown falls back to a generic retry message.
package errmap

import "errors"

// Generic is the fallback message for unrecognized codes.
const Generic = "Something went wrong. Please try again."

var messages = map[string]string{
	"auth/wrong-password":          "Incorrect password. Please try again or reset your password.",
	"auth/user-not-found":          "No account found with this email address.",
	"auth/invalid-email":           "Please enter a valid email address.",
	"auth/email-already-in-use":    "An account with this email already exists.",
	"auth/weak-password":           "Password should be at least 6 characters.",
	"auth/too-many-requests":       "Too many attempts. Please wait a moment and try again.",
	"auth/network-request-failed":  "Network error. Please check your connection and try again.",
	"auth/user-disabled":           "This account has been disabled.",
	"auth/requires-recent-login":   "Please sign in again before retrying this action.",
	"auth/popup-closed-by-user":    "Sign-in was cancelled before it completed.",
	"auth/invalid-credential":      "The provided credentials are invalid or have expired.",
	"auth/operation-not-allowed":   "This sign-in method is not enabled for this application.",
	"auth/account-exists-with-different-credential": "An account already exists with this email but a different sign-in method.",
}

// Message returns the user-facing sentence for a backend error code.
func Message(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return Generic
}

// Known reports whether the code has a dedicated message.
func Known(code string) bool {
	_, ok := messages[code]
	return ok
}

// CodedError is a backend failure carrying its stable code alongside the
// mapped user-facing message. Error() returns the mapped message so the
// value can surface directly in UI.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string { return Message(e.Code) }

func (e *CodedError) Unwrap() error { return e.Err }

// New wraps err with its backend code.
func New(code string, err error) *CodedError {
	return &CodedError{Code: code, Err: err}
}

// CodeOf extracts the backend code from err, or "" if err carries none.
func CodeOf(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
