package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	st := a.session.Snapshot()
	switch {
	case st.InitialLoading:
		return "(resolving)"
	case st.User == nil:
		return ""
	case st.IsOffline:
		return fmt.Sprintf("(%s offline)", st.User.Email)
	default:
		return fmt.Sprintf("(%s)", st.User.Email)
	}
}

func (a *App) root(ctx context.Context) {
	fmt.Printf("%s (type 'help' for commands)\n", a.t("common.appName", nil))
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("ri %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		// Any typed command counts as activity for the idle watchdog.
		a.session.RecordActivity()

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.session.Snapshot().SignedIn() {
				fmt.Println("Available commands: whoami, profile, settings, set <name> <value>, theme, deactivate, delete, logout, exit")
			} else {
				fmt.Println("Available commands: login, google, signup, reset, settings, set <name> <value>, exit")
			}

		case "login":
			_ = a.Login(ctx)
		case "google":
			_ = a.GoogleLogin(ctx)
		case "signup", "register":
			_ = a.Signup(ctx)
		case "reset":
			_ = a.ResetPassword(ctx)
		case "whoami":
			a.Whoami()
		case "profile":
			_ = a.UpdateProfile(ctx)
		case "settings":
			a.showSettings(ctx)
		case "set":
			if len(args) < 2 {
				fmt.Println("Usage: set <name> <value>")
				continue
			}
			a.setSetting(ctx, args[0], strings.Join(args[1:], " "))
		case "theme":
			a.showTheme()
		case "deactivate":
			_ = a.DeactivateAccount(ctx)
		case "delete":
			_ = a.DeleteAccount(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
