package prefs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/logging"
)

// memRepo is an in-memory Repository for service-level tests.
type memRepo struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMemRepo() *memRepo { return &memRepo{data: make(map[string]string)} }

func (m *memRepo) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memRepo) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memRepo) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

func TestService_Load_DefaultsWhenEmpty(t *testing.T) {
	s := NewService(newMemRepo(), logging.Nop())

	p := s.Load(context.Background())
	require.Equal(t, models.DefaultPreferences(), p)
}

func TestService_Load_ReadsStoredValues(t *testing.T) {
	repo := newMemRepo()
	s := NewService(repo, logging.Nop())
	ctx := context.Background()

	require.NoError(t, s.SetTheme(ctx, models.ThemeDark))
	require.NoError(t, s.SetAccentColor(ctx, "#ff0044"))
	require.NoError(t, s.SetFontSize(ctx, models.FontSizeLarge))
	require.NoError(t, s.SetUIDensity(ctx, models.DensityCompact))
	require.NoError(t, s.SetAnimationsEnabled(ctx, false))
	require.NoError(t, s.SetLanguage(ctx, "es"))
	require.NoError(t, s.SetNotificationsEnabled(ctx, false))

	p := s.Load(ctx)
	require.Equal(t, models.ThemeDark, p.Theme)
	require.Equal(t, "#ff0044", p.AccentColor)
	require.Equal(t, models.FontSizeLarge, p.FontSize)
	require.Equal(t, models.DensityCompact, p.UIDensity)
	require.False(t, p.AnimationsEnabled)
	require.Equal(t, "es", p.SelectedLanguage)
	require.False(t, p.NotificationsEnabled)
}

func TestService_Load_InvalidEnumsFallBack(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	_ = repo.Set(ctx, keyTheme, "sepia")
	_ = repo.Set(ctx, keyFontSize, "humongous")
	_ = repo.Set(ctx, keyUIDensity, "dense")
	_ = repo.Set(ctx, keyAnimations, "maybe")

	p := NewService(repo, logging.Nop()).Load(ctx)
	d := models.DefaultPreferences()
	require.Equal(t, d.Theme, p.Theme)
	require.Equal(t, d.FontSize, p.FontSize)
	require.Equal(t, d.UIDensity, p.UIDensity)
	require.Equal(t, d.AnimationsEnabled, p.AnimationsEnabled)
}

func TestService_Load_ErrorsFallBackToDefaults(t *testing.T) {
	repo := newMemRepo()
	repo.getErr = errors.New("disk gone")

	p := NewService(repo, logging.Nop()).Load(context.Background())
	require.Equal(t, models.DefaultPreferences(), p)
}

func TestService_Load_PurgesBlobPhotoURL(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	_ = repo.Set(ctx, keyPhotoURL, "blob:http://app.local/tmp-9f2")

	NewService(repo, logging.Nop()).Load(ctx)

	_, ok, err := repo.Get(ctx, keyPhotoURL)
	require.NoError(t, err)
	require.False(t, ok, "blob URL must be purged from the store")
}

func TestService_Load_KeepsDurablePhotoURL(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	_ = repo.Set(ctx, keyPhotoURL, "https://files.example.com/a.png")

	NewService(repo, logging.Nop()).Load(ctx)

	v, ok, err := repo.Get(ctx, keyPhotoURL)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "https://files.example.com/a.png", v)
}

func TestService_WatchLanguage_NotifiesOnExternalChange(t *testing.T) {
	repo := newMemRepo()
	s := NewService(repo, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.SetLanguage(ctx, "en"))

	got := make(chan string, 1)
	go s.WatchLanguage(ctx, 5*time.Millisecond, func(lang string) {
		select {
		case got <- lang:
		default:
		}
	})

	time.Sleep(15 * time.Millisecond)
	require.NoError(t, s.SetLanguage(ctx, "fr"))

	select {
	case lang := <-got:
		require.Equal(t, "fr", lang)
	case <-time.After(time.Second):
		t.Fatal("expected a language-change notification")
	}
}

func TestTokenCache_RoundTrip(t *testing.T) {
	repo := newMemRepo()
	c := NewTokenCache(repo)
	ctx := context.Background()

	v, err := c.LoadRefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, v)

	require.NoError(t, c.SaveRefreshToken(ctx, "refresh-abc"))
	v, err = c.LoadRefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "refresh-abc", v)

	require.NoError(t, c.ClearRefreshToken(ctx))
	v, err = c.LoadRefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, v)
}
