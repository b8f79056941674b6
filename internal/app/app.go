package app

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/patio/internal/config"
	"github.com/five82/patio/internal/deletion"
	"github.com/five82/patio/internal/diff"
	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/logging"
	"github.com/five82/patio/internal/mutation"
	"github.com/five82/patio/internal/prefs"
	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/ui"
	"github.com/five82/patio/internal/webhook"
)

const initialLoadTimeout = 10 * time.Second

// Options configure the patio application.
type Options struct {
	ConfigPath string
	PrefsPath  string   // empty uses default ~/.config/patio/prefs.toml
	EnvFiles   []string // .env files to load before reading the environment
	PollEvery  int      // seconds; zero uses the configured interval
}

// Run boots the patio TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	if err := config.LoadDotEnv(opts.EnvFiles...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	log, closer, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()

	locator := imagecodec.NewLocator(cfg.StorageOrigin, cfg.StoragePrefix)
	client, err := webhook.NewClient(webhook.Options{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.RequestTimeout,
		Locator: locator,
	})
	if err != nil {
		return fmt.Errorf("init webhook client: %w", err)
	}

	store := &state.Store{}
	defer store.Reset()

	engine := diff.NewEngine(imagecodec.NewCodec(imagecodec.FileSource{}, cfg.MaxImageBytes), locator, log)
	editor := mutation.NewCoordinator(store, client, engine, log)
	deleter := deletion.NewCoordinator(store, client, locator, log)

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	log.Info("patio starting", "base_url", cfg.BaseURL, "poll_interval", interval.String())

	// Populate the store before the UI starts; failures surface as offline.
	if err := initialLoad(ctx, store, client); err != nil {
		log.Warn("initial vehicle load failed", "error", err)
	}

	StartPoller(ctx, store, client, interval, log)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Editor:    editor,
		Deleter:   deleter,
		Fetcher:   client,
		Logger:    log,
		LogPath:   cfg.LogPath,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
	})
	log.Info("patio stopped")
	return err
}

// initialLoad replaces the collection with the server's list.
func initialLoad(ctx context.Context, store *state.Store, client VehicleFetcher) error {
	ctx, cancel := context.WithTimeout(ctx, initialLoadTimeout)
	defer cancel()

	vehicles, err := client.FetchVehicles(ctx)
	if err != nil {
		store.RecordFailure(err)
		return err
	}
	store.ReplaceAll(vehicles)
	return nil
}
