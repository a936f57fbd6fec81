package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/gashu"
	"github.com/aretw0/gashu/internal/adapters/file"
	"github.com/aretw0/gashu/internal/config"
	"github.com/aretw0/gashu/pkg/adapters/kakao"
	"github.com/aretw0/gashu/pkg/adapters/memory"
	"github.com/aretw0/gashu/pkg/adapters/redis"
	"github.com/aretw0/gashu/pkg/adapters/stations"
	"github.com/aretw0/gashu/pkg/adapters/tago"
	"github.com/aretw0/gashu/pkg/adapters/tmap"
	"github.com/aretw0/gashu/pkg/dialogue"
	"github.com/aretw0/gashu/pkg/itinerary"
	"github.com/aretw0/gashu/pkg/llm"
	"github.com/aretw0/gashu/pkg/observability"
	"github.com/aretw0/gashu/pkg/persistence/middleware"
	"github.com/aretw0/gashu/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultStationsDB is opened when no station database is configured.
const DefaultStationsDB = "stations.db"

// App bundles the engine with the resources that must be released on exit.
type App struct {
	Engine   *gashu.Engine
	Store    ports.SessionStore
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases databases and connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildOptions tunes what the factory wires beyond the config.
type BuildOptions struct {
	// Debug adds lifecycle hooks that log every step.
	Debug bool
	// Collaborators replaces the provider-backed collaborators (tests).
	Collaborators *gashu.Collaborators
}

// createApp wires every component named by cfg into an engine.
func createApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*App, error) {
	app := &App{Registry: prometheus.NewRegistry()}
	fail := func(err error) (*App, error) {
		_ = app.Close()
		return nil, err
	}

	store, locker, err := app.createStore(cfg)
	if err != nil {
		return fail(err)
	}
	app.Store = store

	var collaborators gashu.Collaborators
	if opts.Collaborators != nil {
		collaborators = *opts.Collaborators
	} else {
		resolver, err := app.createResolver(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		if collaborators, err = createCollaborators(cfg, logger, resolver); err != nil {
			return fail(err)
		}
	}

	metrics, err := observability.NewMetrics(app.Registry)
	if err != nil {
		return fail(err)
	}
	hooks := []gashu.Option{}
	if opts.Debug {
		hooks = append(hooks, gashu.WithLifecycleHooks(observability.Combine(metrics.Hooks(), createDebugHooks(logger))))
	} else {
		hooks = append(hooks, gashu.WithLifecycleHooks(metrics.Hooks()))
	}

	engineOpts := append(hooks,
		gashu.WithStore(store),
		gashu.WithLogger(logger),
		gashu.WithMaxCascade(cfg.Engine.MaxCascade),
		gashu.WithMaxSteps(cfg.Engine.MaxSteps),
		gashu.WithCallTimeout(cfg.Engine.CallTimeout),
		gashu.WithHistoryLimit(cfg.Store.HistoryLimit),
		gashu.WithLockTTL(cfg.Engine.LockTTL),
	)
	if locker != nil {
		engineOpts = append(engineOpts, gashu.WithLocker(locker))
	}

	eng, err := gashu.New(collaborators, engineOpts...)
	if err != nil {
		return fail(fmt.Errorf("error initializing engine: %w", err))
	}
	app.Engine = eng
	return app, nil
}

// createStore selects the session backend and wraps it in the configured
// middlewares. Redis deployments also get a distributed turn lock.
func (a *App) createStore(cfg *config.Config) (ports.SessionStore, ports.DistributedLocker, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)
	switch cfg.Store.Driver {
	case config.DriverFile:
		store = file.New(cfg.Store.Dir)
	case config.DriverRedis:
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithPrefix(cfg.Store.Redis.Prefix),
			redis.WithTTL(cfg.Store.Redis.TTL),
		)
		a.closers = append(a.closers, rs.Client().Close)
		store = rs
		locker = redis.NewLocker(rs.Client(), cfg.Store.Redis.Prefix)
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(cfg.Store.RedactPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Store.RedactPatterns))
	}
	if cfg.Store.EncryptionKey != "" {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: []byte(cfg.Store.EncryptionKey),
		}))
	}
	return middleware.Chain(store, mws...), locker, nil
}

// createResolver opens the station database: PostgreSQL when a URL is
// set, SQLite otherwise. Lookups are memoised.
func (a *App) createResolver(ctx context.Context, cfg *config.Config) (ports.NearestStationResolver, error) {
	if cfg.Stations.PostgresURL != "" {
		pg, err := stations.OpenPostgres(ctx, cfg.Stations.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open station database: %w", err)
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		return stations.NewCached(pg), nil
	}

	db, err := openStationsSQLite(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return stations.NewCached(db), nil
}

func openStationsSQLite(ctx context.Context, cfg *config.Config) (*stations.SQLite, error) {
	path := cfg.Stations.SQLite
	if path == "" {
		path = DefaultStationsDB
	}
	db, err := stations.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open station database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare station database: %w", err)
	}
	return db, nil
}

// createCollaborators builds the model-backed dialogue service and the
// place, route and arrival clients.
func createCollaborators(cfg *config.Config, logger *slog.Logger, resolver ports.NearestStationResolver) (gashu.Collaborators, error) {
	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}

	settings := llm.Settings{
		Model:         cfg.LLM.Model,
		OpenAIKey:     cfg.LLM.OpenAIKey,
		OpenAIBaseURL: cfg.LLM.BaseURL,
		AnthropicKey:  cfg.LLM.AnthropicKey,
	}
	client, model, err := llm.NewClient(settings)
	if err != nil {
		return gashu.Collaborators{}, err
	}
	dlgOpts := []dialogue.Option{
		dialogue.WithMaxTokens(cfg.LLM.MaxTokens),
		dialogue.WithLogger(logger),
	}

	var classifier ports.Classifier
	mainProvider, _ := llm.ParseModelString(cfg.LLM.Model)
	classProvider, classModel := llm.ParseModelString(cfg.LLM.ClassifierModel)
	switch {
	case cfg.LLM.ClassifierModel == "" || classProvider == mainProvider:
		dlgOpts = append(dlgOpts, dialogue.WithClassifierModel(classModel))
	default:
		// The classifier lives on another provider than the dialogue model.
		settings.Model = cfg.LLM.ClassifierModel
		cClient, cModel, err := llm.NewClient(settings)
		if err != nil {
			return gashu.Collaborators{}, err
		}
		classifier = dialogue.New(cClient, cModel, dlgOpts...)
	}
	dlg := dialogue.New(client, model, dlgOpts...)
	if classifier == nil {
		classifier = dlg
	}

	places := kakao.New(cfg.Providers.KakaoKey, kakao.WithHTTPClient(httpClient))
	routes := tmap.New(cfg.Providers.TmapKey, tmap.WithHTTPClient(httpClient))
	arrivals := tago.New(cfg.Providers.DataGoKey,
		tago.WithCityCode(cfg.Providers.CityCode),
		tago.WithHTTPClient(httpClient),
	)

	return gashu.Collaborators{
		Classifier: classifier,
		Dest:       dlg,
		Dep:        dlg,
		Route:      dlg,
		Search:     places,
		Geocoder:   places,
		Directions: routes,
		Normalizer: itinerary.New(resolver, itinerary.WithLogger(logger)),
		Arrivals:   arrivals,
	}, nil
}
