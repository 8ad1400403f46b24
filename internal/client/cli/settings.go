package cli

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/readyinterview/client-go/internal/client/models"
)

// styleStore is the CLI's StyleSink: it keeps the last derived property
// map so the "theme" command can display it. A browser shell would write
// these values to the document root instead.
type styleStore struct {
	mu    sync.Mutex
	props map[string]string
}

func newStyleStore() *styleStore {
	return &styleStore{props: make(map[string]string)}
}

func (s *styleStore) Apply(props map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props = props
}

func (s *styleStore) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.props))
	for k, v := range s.props {
		out[k] = v
	}
	return out
}

// showSettings prints the stored preferences.
func (a *App) showSettings(ctx context.Context) {
	p := a.prefs.Load(ctx)
	fmt.Println(a.t("settings.title", nil))
	fmt.Printf("  %-12s %s\n", a.t("settings.theme", nil), p.Theme)
	fmt.Printf("  %-12s %s\n", a.t("settings.accentColor", nil), p.AccentColor)
	fmt.Printf("  %-12s %s\n", a.t("settings.fontSize", nil), p.FontSize)
	fmt.Printf("  %-12s %s\n", a.t("settings.density", nil), p.UIDensity)
	fmt.Printf("  %-12s %v\n", a.t("settings.animations", nil), p.AnimationsEnabled)
	fmt.Printf("  %-12s %s\n", a.t("settings.language", nil), p.SelectedLanguage)
	fmt.Printf("  %-12s %v\n", a.t("settings.notifications", nil), p.NotificationsEnabled)
}

// setSetting updates one preference and re-derives the full style map.
func (a *App) setSetting(ctx context.Context, name, value string) {
	var err error
	switch name {
	case "theme":
		err = a.prefs.SetTheme(ctx, models.Theme(value))
	case "accent":
		err = a.prefs.SetAccentColor(ctx, value)
	case "font":
		err = a.prefs.SetFontSize(ctx, models.FontSize(value))
	case "density":
		err = a.prefs.SetUIDensity(ctx, models.Density(value))
	case "animations":
		err = a.prefs.SetAnimationsEnabled(ctx, value == "on" || value == "true")
	case "notifications":
		err = a.prefs.SetNotificationsEnabled(ctx, value == "on" || value == "true")
	case "language":
		if !a.i18n.Has(value) {
			fmt.Printf("unknown language %q (available: %v)\n", value, a.i18n.Languages())
			return
		}
		if err = a.prefs.SetLanguage(ctx, value); err == nil {
			a.language = value
		}
	default:
		fmt.Println("unknown setting:", name)
		fmt.Println("settings: theme, accent, font, density, animations, notifications, language")
		return
	}
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	a.theme.Apply(ctx, a.prefs.Load(ctx))
}

// showTheme prints the derived style properties.
func (a *App) showTheme() {
	props := a.styles.snapshot()
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-20s %s\n", k, props[k])
	}
}
