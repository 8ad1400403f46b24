package prefs

import (
	"context"
	"strconv"
	"time"

	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/common"
	"github.com/readyinterview/client-go/internal/logging"
)

// Storage keys. Each preference is its own entry.
const (
	keyTheme         = "pref.theme"
	keyAccentColor   = "pref.accent_color"
	keyFontSize      = "pref.font_size"
	keyUIDensity     = "pref.ui_density"
	keyAnimations    = "pref.animations_enabled"
	keyLanguage      = "pref.selected_language"
	keyNotifications = "pref.notifications_enabled"
	keyPhotoURL      = "profile.photo_url"
)

// Service exposes typed access to the persisted preferences. Every read
// defaults missing keys; every setter writes exactly one key.
type Service struct {
	repo Repository
	log  logging.Logger
}

func NewService(repo Repository, log logging.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) get(ctx context.Context, key, fallback string) string {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "preference read failed", "key", key, "err", err)
		return fallback
	}
	if !ok {
		return fallback
	}
	return v
}

// Load reads every preference, applying defaults for absent or unreadable
// entries. It also purges any persisted transient blob photo URL: those
// values are tab-local and must never survive as durable state.
func (s *Service) Load(ctx context.Context) models.Preferences {
	s.purgeBlobPhotoURL(ctx)

	d := models.DefaultPreferences()
	p := models.Preferences{
		Theme:                models.Theme(s.get(ctx, keyTheme, string(d.Theme))),
		AccentColor:          s.get(ctx, keyAccentColor, d.AccentColor),
		FontSize:             models.FontSize(s.get(ctx, keyFontSize, string(d.FontSize))),
		UIDensity:            models.Density(s.get(ctx, keyUIDensity, string(d.UIDensity))),
		SelectedLanguage:     s.get(ctx, keyLanguage, d.SelectedLanguage),
		AnimationsEnabled:    s.getBool(ctx, keyAnimations, d.AnimationsEnabled),
		NotificationsEnabled: s.getBool(ctx, keyNotifications, d.NotificationsEnabled),
	}

	switch p.Theme {
	case models.ThemeLight, models.ThemeDark:
	default:
		p.Theme = d.Theme
	}
	switch p.FontSize {
	case models.FontSizeSmall, models.FontSizeMedium, models.FontSizeLarge, models.FontSizeXLarge:
	default:
		p.FontSize = d.FontSize
	}
	switch p.UIDensity {
	case models.DensityCompact, models.DensityComfortable, models.DensitySpacious:
	default:
		p.UIDensity = d.UIDensity
	}
	return p
}

func (s *Service) getBool(ctx context.Context, key string, fallback bool) bool {
	raw := s.get(ctx, key, strconv.FormatBool(fallback))
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (s *Service) purgeBlobPhotoURL(ctx context.Context) {
	v, ok, err := s.repo.Get(ctx, keyPhotoURL)
	if err != nil || !ok {
		return
	}
	if models.IsBlobURL(v) {
		if err := s.repo.Delete(ctx, keyPhotoURL); err != nil {
			s.log.Warn(ctx, "purging blob photo URL failed", "err", err)
			return
		}
		s.log.Debug(ctx, "purged transient blob photo URL from local store")
	}
}

func (s *Service) SetTheme(ctx context.Context, v models.Theme) error {
	return s.repo.Set(ctx, keyTheme, string(v))
}

func (s *Service) SetAccentColor(ctx context.Context, hex string) error {
	return s.repo.Set(ctx, keyAccentColor, hex)
}

func (s *Service) SetFontSize(ctx context.Context, v models.FontSize) error {
	return s.repo.Set(ctx, keyFontSize, string(v))
}

func (s *Service) SetUIDensity(ctx context.Context, v models.Density) error {
	return s.repo.Set(ctx, keyUIDensity, string(v))
}

func (s *Service) SetAnimationsEnabled(ctx context.Context, v bool) error {
	return s.repo.Set(ctx, keyAnimations, strconv.FormatBool(v))
}

func (s *Service) SetLanguage(ctx context.Context, iso string) error {
	return s.repo.Set(ctx, keyLanguage, iso)
}

func (s *Service) SetNotificationsEnabled(ctx context.Context, v bool) error {
	return s.repo.Set(ctx, keyNotifications, strconv.FormatBool(v))
}

// WatchLanguage polls the store and invokes fn whenever the selected
// language changes underneath this process (another instance sharing the
// store may have written it). Only the language is reconciled this way;
// other preferences stay last-writer-wins. Blocks until ctx is done.
func (s *Service) WatchLanguage(ctx context.Context, interval time.Duration, fn func(lang string)) {
	last := s.get(ctx, keyLanguage, common.DefaultLanguage)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := s.get(ctx, keyLanguage, common.DefaultLanguage)
			if cur != last {
				last = cur
				fn(cur)
			}
		}
	}
}
