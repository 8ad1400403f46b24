package backend

import (
	"context"
	"errors"
	"net"

	"github.com/readyinterview/client-go/internal/common"
	"github.com/readyinterview/client-go/internal/errmap"
)

// backend wire codes → the stable "auth/..." codes consumed by errmap.
var wireCodes = map[string]string{
	"INVALID_PASSWORD":                 "auth/wrong-password",
	"INVALID_LOGIN_CREDENTIALS":        "auth/wrong-password",
	"EMAIL_NOT_FOUND":                  "auth/user-not-found",
	"INVALID_EMAIL":                    "auth/invalid-email",
	"EMAIL_EXISTS":                     "auth/email-already-in-use",
	"WEAK_PASSWORD":                    "auth/weak-password",
	"TOO_MANY_ATTEMPTS_TRY_LATER":      "auth/too-many-requests",
	"USER_DISABLED":                    "auth/user-disabled",
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN":   "auth/requires-recent-login",
	"INVALID_IDP_RESPONSE":             "auth/invalid-credential",
	"OPERATION_NOT_ALLOWED":            "auth/operation-not-allowed",
	"FEDERATED_USER_ID_ALREADY_LINKED": "auth/account-exists-with-different-credential",
}

// sentinel per code family, matched by callers with errors.Is.
var codeSentinels = map[string]error{
	"auth/wrong-password":        common.ErrInvalidCredentials,
	"auth/user-not-found":        common.ErrInvalidCredentials,
	"auth/invalid-email":         common.ErrValidation,
	"auth/email-already-in-use":  common.ErrEmailInUse,
	"auth/weak-password":         common.ErrWeakPassword,
	"auth/too-many-requests":     common.ErrTooManyRequests,
	"auth/user-disabled":         common.ErrUnauthorized,
	"auth/requires-recent-login": common.ErrRequiresRecentAuth,
	"auth/invalid-credential":    common.ErrInvalidCredentials,
	"auth/operation-not-allowed": common.ErrUnauthorized,
}

// mapWireError turns a backend wire code into a CodedError carrying the
// user-facing message and an errors.Is-able sentinel.
func mapWireError(wireCode string) error {
	code, ok := wireCodes[wireCode]
	if !ok {
		code = "auth/internal-error"
	}
	sentinel, ok := codeSentinels[code]
	if !ok {
		sentinel = common.ErrUnauthorized
	}
	return errmap.New(code, sentinel)
}

// mapTransportError classifies a request-level failure: timeouts and
// connectivity problems surface as ErrUnavailable so callers can degrade
// instead of hard-failing.
func mapTransportError(err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errmap.New("auth/network-request-failed", common.ErrUnavailable)
	case errors.As(err, &ne):
		return errmap.New("auth/network-request-failed", common.ErrUnavailable)
	}
	return err
}
