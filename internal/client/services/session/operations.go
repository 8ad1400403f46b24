package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/readyinterview/client-go/internal/client/backend"
	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/common"
)

// Every operation follows the same shape: clear the previous error and
// raise Loading, run, then record the outcome. Failures are delivered
// twice on purpose: returned to the caller for inline handling AND
// written to AuthState.Err for passive observers.

func (m *Manager) beginOp() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return common.ErrClosed
	}
	m.setStateLocked(func(st *AuthState) {
		st.Loading = true
		st.Err = nil
	})
	return nil
}

func (m *Manager) endOp(err error) {
	m.setState(func(st *AuthState) {
		st.Loading = false
		if err != nil {
			st.Err = err
		}
	})
}

// Login signs in with email and password. rememberMe selects durable
// credential persistence; false keeps the session process-local. The
// returned user already carries the role from the profile document.
func (m *Manager) Login(ctx context.Context, email, password string, rememberMe bool) (*models.User, error) {
	if err := m.beginOp(); err != nil {
		return nil, err
	}
	user, err := m.login(ctx, email, password, rememberMe)
	m.endOp(err)
	return user, err
}

func (m *Manager) login(ctx context.Context, email, password string, rememberMe bool) (*models.User, error) {
	if err := m.checkInput(credentialsInput{Email: email, Password: password}); err != nil {
		return nil, err
	}
	m.backend.SetPersistence(rememberMe)

	// Returned as-is: the message is the user-facing sentence mapped from
	// the backend code, and callers render err.Error() verbatim.
	p, err := m.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.touchIdle()
	return m.mergedUser(ctx, p), nil
}

// Signup creates an account, writes its initial profile document, and
// sends the verification email. Like Login, the returned user carries
// the (default) role so both entry points have the same contract.
func (m *Manager) Signup(ctx context.Context, email, password, confirmPassword, displayName string) (*models.User, error) {
	if err := m.beginOp(); err != nil {
		return nil, err
	}
	user, err := m.signup(ctx, email, password, confirmPassword, displayName)
	m.endOp(err)
	return user, err
}

func (m *Manager) signup(ctx context.Context, email, password, confirmPassword, displayName string) (*models.User, error) {
	in := signupInput{
		Email:           email,
		Password:        password,
		ConfirmPassword: confirmPassword,
		DisplayName:     displayName,
	}
	if err := m.checkInput(in); err != nil {
		return nil, err
	}

	p, err := m.backend.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, fmt.Errorf("sign-up failed: %w", err)
	}

	role := models.DefaultRole
	doc := &models.ProfileDocument{
		Email:       p.Email,
		DisplayName: displayName,
		Role:        &role,
		Status:      "active",
		CreatedAt:   backend.ServerTimestamp(),
		UpdatedAt:   backend.ServerTimestamp(),
	}
	if err := m.backend.SetProfile(ctx, p.UID, doc, false); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if err := m.backend.SendEmailVerification(ctx); err != nil {
		// Non-fatal: the account exists, verification can be re-sent.
		m.log.Warn(ctx, "failed to send verification email", "uid", p.UID, "error", err)
	}
	m.touchIdle()
	return models.MergeUser(p, doc), nil
}

// GoogleAuthURL returns the provider consent URL for the federated
// sign-in flow, or an error when no authenticator is configured.
func (m *Manager) GoogleAuthURL(state string) (string, error) {
	if m.idp == nil {
		return "", errors.New("google sign-in is not configured")
	}
	return m.idp.AuthURL(state), nil
}

// SignInWithGoogle completes the federated flow with the authorization
// code from the consent redirect. First-time users get a profile
// document created on the spot.
func (m *Manager) SignInWithGoogle(ctx context.Context, code string) (*models.User, error) {
	if err := m.beginOp(); err != nil {
		return nil, err
	}
	user, err := m.signInWithGoogle(ctx, code)
	m.endOp(err)
	return user, err
}

func (m *Manager) signInWithGoogle(ctx context.Context, code string) (*models.User, error) {
	if m.idp == nil {
		return nil, errors.New("google sign-in is not configured")
	}
	idToken, err := m.idp.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("federated exchange failed: %w", err)
	}
	p, err := m.backend.SignInWithIDP(ctx, m.idp.ProviderID(), idToken)
	if err != nil {
		return nil, fmt.Errorf("federated sign-in failed: %w", err)
	}

	doc, err := m.backend.GetProfile(ctx, p.UID)
	if errors.Is(err, common.ErrNotFound) {
		role := models.DefaultRole
		doc = &models.ProfileDocument{
			Email:       p.Email,
			DisplayName: p.DisplayName,
			Role:        &role,
			Status:      "active",
			CreatedAt:   backend.ServerTimestamp(),
			UpdatedAt:   backend.ServerTimestamp(),
		}
		if err := m.backend.SetProfile(ctx, p.UID, doc, false); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
	} else if err != nil {
		doc = nil
	}
	m.touchIdle()
	return models.MergeUser(p, doc), nil
}

// Logout signs out and clears the session state.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.beginOp(); err != nil {
		return err
	}
	err := m.backend.SignOut(ctx)
	if err != nil {
		err = fmt.Errorf("sign-out failed: %w", err)
	}

	m.mu.Lock()
	m.disarmIdleLocked()
	m.setStateLocked(func(st *AuthState) {
		st.Loading = false
		st.User = nil
		st.IsOffline = false
		if err != nil {
			st.Err = err
		}
	})
	m.mu.Unlock()
	return err
}

// ResetPassword sends the password-reset email.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if err := m.beginOp(); err != nil {
		return err
	}
	err := m.resetPassword(ctx, email)
	m.endOp(err)
	return err
}

func (m *Manager) resetPassword(ctx context.Context, email string) error {
	if err := m.checkInput(emailInput{Email: email}); err != nil {
		return err
	}
	if err := m.backend.SendPasswordReset(ctx, email); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// ProfileUpdates carries the optional fields of an UpdateProfile call.
// Nil pointers leave the corresponding field untouched.
type ProfileUpdates struct {
	DisplayName   *string
	Phone         *string
	RecoveryEmail *string
	PhotoURL      *string

	// AvatarData, when set, is uploaded to the file subsystem and the
	// resulting durable URL is stored in place of PhotoURL.
	AvatarData        []byte
	AvatarContentType string
}

// UpdateProfile writes the provided fields to the profile document (merge
// semantics) and mirrors the display name into the auth profile.
// Transient blob-scheme photo URLs are stripped, never persisted.
func (m *Manager) UpdateProfile(ctx context.Context, updates ProfileUpdates) error {
	if err := m.beginOp(); err != nil {
		return err
	}
	err := m.updateProfile(ctx, updates)
	m.endOp(err)
	return err
}

func (m *Manager) updateProfile(ctx context.Context, updates ProfileUpdates) error {
	user, err := m.currentUser()
	if err != nil {
		return err
	}
	in := profileInput{}
	if updates.DisplayName != nil {
		in.DisplayName = *updates.DisplayName
	}
	if updates.RecoveryEmail != nil {
		in.RecoveryEmail = *updates.RecoveryEmail
	}
	if err := m.checkInput(in); err != nil {
		return err
	}
	m.touchIdle()

	photoURL := updates.PhotoURL
	if photoURL != nil && models.IsBlobURL(*photoURL) {
		m.log.Warn(ctx, "dropping transient blob photo URL", "uid", user.UID)
		photoURL = nil
	}
	if len(updates.AvatarData) > 0 {
		url, err := m.backend.UploadAvatar(ctx, user.UID, updates.AvatarData, updates.AvatarContentType)
		if err != nil {
			return fmt.Errorf("avatar upload failed: %w", err)
		}
		photoURL = &url
	}

	doc := &models.ProfileDocument{
		Phone:         updates.Phone,
		RecoveryEmail: updates.RecoveryEmail,
		PhotoURL:      photoURL,
		UpdatedAt:     backend.ServerTimestamp(),
	}
	if updates.DisplayName != nil {
		doc.DisplayName = *updates.DisplayName
		if err := m.backend.UpdateAuthProfile(ctx, *updates.DisplayName, nil); err != nil {
			return fmt.Errorf("failed to update auth profile: %w", err)
		}
	}
	if err := m.backend.SetProfile(ctx, user.UID, doc, true); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if updates.DisplayName != nil {
		m.setState(func(st *AuthState) {
			if st.User != nil && st.User.UID == user.UID {
				u := *st.User
				u.DisplayName = *updates.DisplayName
				st.User = &u
			}
		})
	}
	return nil
}

// DeactivateAccount re-authenticates, marks the profile deactivated, and
// signs out. The account can be restored by support.
func (m *Manager) DeactivateAccount(ctx context.Context, password string) error {
	if err := m.beginOp(); err != nil {
		return err
	}
	err := m.deactivateAccount(ctx, password)
	m.endOp(err)
	return err
}

func (m *Manager) deactivateAccount(ctx context.Context, password string) error {
	user, err := m.currentUser()
	if err != nil {
		return err
	}
	if err := m.checkInput(passwordInput{Password: password}); err != nil {
		return err
	}
	if err := m.backend.Reauthenticate(ctx, password); err != nil {
		return fmt.Errorf("re-authentication failed: %w", err)
	}
	doc := &models.ProfileDocument{
		Status:    "deactivated",
		UpdatedAt: backend.ServerTimestamp(),
	}
	if err := m.backend.SetProfile(ctx, user.UID, doc, true); err != nil {
		return fmt.Errorf("failed to deactivate profile: %w", err)
	}
	return m.Logout(ctx)
}

// DeleteAccount re-authenticates, anonymizes the profile document, and
// deletes the auth account. Anonymize-then-delete: the document write
// lands first so no orphaned PII survives the account.
func (m *Manager) DeleteAccount(ctx context.Context, password string) error {
	if err := m.beginOp(); err != nil {
		return err
	}
	err := m.deleteAccount(ctx, password)
	m.endOp(err)
	return err
}

func (m *Manager) deleteAccount(ctx context.Context, password string) error {
	user, err := m.currentUser()
	if err != nil {
		return err
	}
	if err := m.checkInput(passwordInput{Password: password}); err != nil {
		return err
	}
	if err := m.backend.Reauthenticate(ctx, password); err != nil {
		return fmt.Errorf("re-authentication failed: %w", err)
	}

	anon := &models.ProfileDocument{
		DisplayName: "Deleted User",
		Status:      "deleted",
		UpdatedAt:   backend.ServerTimestamp(),
	}
	if err := m.backend.SetProfile(ctx, user.UID, anon, false); err != nil {
		return fmt.Errorf("failed to anonymize profile: %w", err)
	}
	if err := m.backend.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	m.mu.Lock()
	m.disarmIdleLocked()
	m.setStateLocked(func(st *AuthState) {
		st.User = nil
		st.IsOffline = false
	})
	m.mu.Unlock()
	return nil
}

// currentUser returns the signed-in user or ErrUnauthorized.
func (m *Manager) currentUser() (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.User == nil {
		return nil, fmt.Errorf("not signed in: %w", common.ErrUnauthorized)
	}
	u := *m.state.User
	return &u, nil
}

// mergedUser reads the profile document within the read budget and merges
// it with the principal. Failures degrade to auth fields only; the
// background reconciliation triggered by the auth event owns the offline
// flag.
func (m *Manager) mergedUser(ctx context.Context, p *models.Principal) *models.User {
	rctx, cancel := context.WithTimeout(ctx, m.cfg.DocReadTimeout)
	defer cancel()
	doc, err := m.backend.GetProfile(rctx, p.UID)
	if err != nil {
		doc = nil
	}
	return models.MergeUser(p, doc)
}

// touchIdle rearms the inactivity watchdog after a qualifying action.
func (m *Manager) touchIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.armIdleLocked()
}
