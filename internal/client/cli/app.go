package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/readyinterview/client-go/internal/client/backend"
	"github.com/readyinterview/client-go/internal/client/config"
	"github.com/readyinterview/client-go/internal/client/repositories/prefs"
	"github.com/readyinterview/client-go/internal/client/services/i18n"
	"github.com/readyinterview/client-go/internal/client/services/session"
	"github.com/readyinterview/client-go/internal/client/services/theme"
	"github.com/readyinterview/client-go/internal/common"
	"github.com/readyinterview/client-go/internal/logging"
)

// App wires the SDK together behind the REPL: session manager, local
// preference store, theme deriver, and translation resolver.
type App struct {
	config   *config.Config
	log      logging.Logger
	session  *session.Manager
	prefs    *prefs.Service
	theme    *theme.Service
	styles   *styleStore
	i18n     *i18n.Resolver
	language string
	reader   *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := newLogger(cfg.LogLevel)

	db, err := prefs.InitDatabase(ctx, cfg.LocalStoreDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}
	if err := prefs.EnsureDefaults(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to seed preferences: %w", err)
	}
	repo := prefs.NewSQLiteRepository(db)
	prefSvc := prefs.NewService(repo, log)

	api := backend.NewHTTPClient(cfg.BackendBaseURL, cfg.APIKey, log,
		backend.WithTokenCache(prefs.NewTokenCache(repo)))

	opts := []session.Option{}
	if cfg.GoogleClientID != "" {
		idp, err := backend.NewGoogleAuthenticator(ctx,
			cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure google sign-in: %w", err)
		}
		opts = append(opts, session.WithFederatedAuthenticator(idp))
	}
	mgr := session.New(api, session.Config{
		InitialResolveTimeout: cfg.InitialResolveTimeout,
		DocReadTimeout:        cfg.DocReadTimeout,
		InactivityLimit:       cfg.InactivityLimit,
	}, log, opts...)

	resolver, err := i18n.NewResolver(common.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	styles := newStyleStore()
	app := &App{
		config:  cfg,
		log:     log,
		session: mgr,
		prefs:   prefSvc,
		theme:   theme.NewService(styles, log),
		styles:  styles,
		i18n:    resolver,
		reader:  bufio.NewReader(os.Stdin),
	}
	return app, nil
}

// Run starts the session manager, applies the stored preferences, and
// enters the command loop. It blocks until the user exits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.session.Start(ctx); err != nil {
		return err
	}
	defer a.session.Close()

	p := a.prefs.Load(ctx)
	a.language = p.SelectedLanguage
	a.theme.Apply(ctx, p)

	// Another instance changing the language shows up here; every other
	// preference stays last-writer-wins without reconciliation.
	go a.prefs.WatchLanguage(ctx, a.config.LanguagePollInterval, func(lang string) {
		if a.i18n.Has(lang) {
			a.language = lang
		}
	})

	a.root(ctx)
	return nil
}

// t resolves a translation key in the currently selected language.
func (a *App) t(key string, params i18n.Params) string {
	return a.i18n.T(a.language, key, params)
}

func newLogger(level string) logging.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return logging.NewSlogLogger(slog.New(h))
}
