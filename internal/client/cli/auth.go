package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/readyinterview/client-go/internal/client/backend"
	"github.com/readyinterview/client-go/internal/client/services/session"
	"github.com/readyinterview/client-go/internal/client/services/i18n"
)

// getSimpleText and getPassword are indirections used to facilitate
// testing; they point at the interactive input helpers.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and signs in. Durable persistence is
// offered so a later run can restore the session without a password.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, a.t("auth.login.email", nil), os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(a.t("auth.login.password", nil), os.Stdout)
	if err != nil {
		return err
	}
	remember, err := getSimpleText(a.reader, "Stay signed in? (y/n)", os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.session.Login(ctx, email, password, remember == "y")
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println(a.t("common.greeting", i18n.Params{"name": user.DisplayName}))
	return nil
}

// Signup prompts for account details and registers.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, a.t("auth.login.email", nil), os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, a.t("profile.displayName", nil), os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(a.t("auth.login.password", nil), os.Stdout)
	if err != nil {
		return err
	}
	confirm, err := getPassword(a.t("auth.signup.confirmPassword", nil), os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.session.Signup(ctx, email, password, confirm, name)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println(a.t("common.greeting", i18n.Params{"name": user.DisplayName}))
	return nil
}

// GoogleLogin walks the copy-paste variant of the federated flow: print
// the consent URL, read the authorization code back, complete sign-in.
func (a *App) GoogleLogin(ctx context.Context) error {
	state, err := backend.GenerateState()
	if err != nil {
		return err
	}
	url, err := a.session.GoogleAuthURL(state)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println("Open this URL in a browser and authorize:")
	fmt.Println("  " + url)

	code, err := getSimpleText(a.reader, "Paste the authorization code", os.Stdout)
	if err != nil {
		return err
	}
	user, err := a.session.SignInWithGoogle(ctx, code)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println(a.t("common.greeting", i18n.Params{"name": user.DisplayName}))
	return nil
}

// Logout signs out of the backend.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

// ResetPassword sends the reset email.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, a.t("auth.login.email", nil), os.Stdout)
	if err != nil {
		return err
	}
	if err := a.session.ResetPassword(ctx, email); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println(a.t("auth.resetSent", i18n.Params{"email": email}))
	return nil
}

// Whoami prints the current session snapshot.
func (a *App) Whoami() {
	st := a.session.Snapshot()
	switch {
	case st.InitialLoading:
		fmt.Println(a.t("common.loading", nil))
	case st.User == nil:
		fmt.Println("Not signed in.")
	default:
		fmt.Printf("  uid:      %s\n", st.User.UID)
		fmt.Printf("  email:    %s\n", st.User.Email)
		fmt.Printf("  name:     %s\n", st.User.DisplayName)
		fmt.Printf("  role:     %s\n", st.User.Role)
		fmt.Printf("  verified: %v\n", st.User.EmailVerified)
		if st.IsOffline {
			fmt.Println("  " + a.t("status.offline", nil))
		}
	}
	if st.Err != nil {
		fmt.Println("  last error:", st.Err.Error())
	}
}

// UpdateProfile prompts for new profile values; empty input leaves a
// field unchanged.
func (a *App) UpdateProfile(ctx context.Context) error {
	updates := session.ProfileUpdates{}
	name, err := getSimpleText(a.reader, a.t("profile.displayName", nil)+" (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	if name != "" {
		updates.DisplayName = &name
	}
	phone, err := getSimpleText(a.reader, a.t("profile.phone", nil)+" (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	if phone != "" {
		updates.Phone = &phone
	}
	if err := a.session.UpdateProfile(ctx, updates); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println("Profile updated.")
	return nil
}

// DeleteAccount confirms with a password re-entry, then deletes.
func (a *App) DeleteAccount(ctx context.Context) error {
	fmt.Println(a.t("profile.confirmDelete", nil))
	password, err := getPassword(a.t("auth.login.password", nil), os.Stdout)
	if err != nil {
		return err
	}
	if err := a.session.DeleteAccount(ctx, password); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println("Account deleted.")
	return nil
}

// DeactivateAccount confirms with a password re-entry, then deactivates.
func (a *App) DeactivateAccount(ctx context.Context) error {
	password, err := getPassword(a.t("auth.login.password", nil), os.Stdout)
	if err != nil {
		return err
	}
	if err := a.session.DeactivateAccount(ctx, password); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println("Account deactivated.")
	return nil
}
