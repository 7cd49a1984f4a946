package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/config"
	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/logging"
	"github.com/five82/shopdeck/internal/prefs"
	"github.com/five82/shopdeck/internal/session"
	"github.com/five82/shopdeck/internal/state"
	"github.com/five82/shopdeck/internal/ui"
)

// Version is stamped at build time.
var Version = "dev"

// Options configure the shopdeck console.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/shopdeck/prefs.toml
	// Location is a deep link such as "/orders?status=PENDING".
	Location string
}

// Run boots the console until the operator quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting", zap.String("version", Version), zap.String("api", cfg.APIURL))

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("preferences unreadable, using defaults", zap.Error(err))
	}

	sess, err := session.Load(cfg.SessionFile)
	if err != nil {
		logger.Warn("session unreadable, signing in again", zap.Error(err))
		sess = session.New(cfg.SessionFile)
	}
	if sess.Authenticated() && sess.Expired(time.Now()) {
		logger.Info("stored session expired")
		if _, err := sess.Clear(); err != nil {
			logger.Warn("clear session", zap.Error(err))
		}
	}

	bus := &events.Bus{}
	client, err := backend.NewClient(backend.Options{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.RequestTimeout,
		UserAgent: "shopdeck/" + Version,
		Session:   sess,
		Logger:    logger,
		OnUnauthorized: func() {
			bus.SessionExpired.Publish(events.SessionExpired{})
		},
		OnForbidden: func(path string) {
			bus.Forbidden.Publish(events.Forbidden{Path: path})
		},
	})
	if err != nil {
		return fmt.Errorf("init backend client: %w", err)
	}

	store := &state.Store{}
	poller := &Poller{
		Store:     store,
		Source:    clientBadges{client: client},
		Bus:       bus,
		Threshold: cfg.LowStockBadgeThreshold,
		Interval:  cfg.BadgePoll,
		Logger:    logger,
		Ready:     sess.Authenticated,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})
	g.Go(func() error {
		// Closing the console stops the poller.
		defer cancel()
		err := ui.Run(ui.Options{
			Context:   gctx,
			Client:    client,
			Store:     store,
			Bus:       bus,
			Config:    cfg,
			Prefs:     userPrefs,
			PrefsPath: prefsPath,
			Location:  opts.Location,
			Logger:    logger.Named("ui"),
		})
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("stopped", zap.Error(err))
	return err
}
