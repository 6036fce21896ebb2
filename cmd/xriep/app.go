package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"xriepv1/client/internal/api"
	"xriepv1/client/internal/config"
	"xriepv1/client/internal/device"
	devicedomain "xriepv1/client/internal/device/domain"
	devicerepo "xriepv1/client/internal/device/repository"
	"xriepv1/client/internal/guard"
	sessionrepo "xriepv1/client/internal/session/repository"
	"xriepv1/client/internal/session/service"
	"xriepv1/client/internal/storage"
	"xriepv1/client/internal/telemetry"
	"xriepv1/client/internal/telemetry/loki"
	otelsetup "xriepv1/client/internal/telemetry/otel"
)

const serviceName = "xriep-client"

// app is the wired client: storage, telemetry, the API client, the session store and the route guard.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	theme  *theme
	alerts *alertWriter

	storage      storage.Storage
	closeStorage func() error
	providers    *otelsetup.Providers

	client  *api.Client
	device  devicedomain.Device
	guard   *guard.Guard
	watcher *guard.Watcher
	store   *service.Store
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) (*app, error) {
	st, closeStorage, err := storage.Open(cfg)
	if err != nil {
		return nil, err
	}

	dev := device.NewResolver(devicerepo.NewKVRepository(st), cfg.DeviceID, cfg.DeviceName, logger).Resolve(ctx)

	providers, err := otelsetup.NewProviders(ctx, otelsetup.Config{
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		DeviceID:       dev.ID,
	})
	if err != nil {
		_ = closeStorage()
		return nil, fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	emitters := []telemetry.EventEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	if cfg.LokiURL != "" {
		emitters = append(emitters, loki.NewEmitter(cfg.LokiURL))
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.Timeout(),
		api.WithLogger(logger),
		api.WithTracerProvider(providers.TracerProvider),
		api.WithMeterProvider(providers.MeterProvider),
	)

	g, err := guard.New(ctx, logger)
	if err != nil {
		_ = providers.Shutdown(ctx)
		_ = closeStorage()
		return nil, err
	}
	watcher := guard.NewWatcher(g, guard.NavigatorFunc(func(r guard.Route) {
		logger.Debug("navigate", zap.String("route", string(r)))
	}))

	store := service.NewStore(client, sessionrepo.NewKVRepository(st),
		service.WithNavigator(watcher),
		service.WithEmitter(telemetry.Fanout(emitters...)),
		service.WithLogger(logger),
		service.WithPersistTimeout(cfg.PersistWriteTimeout()),
	)

	th := newTheme(out)
	return &app{
		cfg:          cfg,
		logger:       logger,
		out:          out,
		theme:        th,
		alerts:       newAlertWriter(out, th),
		storage:      st,
		closeStorage: closeStorage,
		providers:    providers,
		client:       client,
		device:       dev,
		guard:        g,
		watcher:      watcher,
		store:        store,
	}, nil
}

// start restores the saved session, confirms it with the backend and puts the guard on the start screen.
func (a *app) start(ctx context.Context) {
	a.store.Hydrate(ctx)
	if err := a.store.LoadUser(ctx); err != nil {
		a.logger.Warn("session: reload failed", zap.Error(err))
	}
	a.watcher.Start(ctx, a.store)
}

// enter opens route through the guard. It fails when the guard sends the session elsewhere.
func (a *app) enter(ctx context.Context, route guard.Route) error {
	snap := a.store.Snapshot()
	shown := a.watcher.Visit(ctx, route, snap)
	if shown != route {
		return &redirectError{route: route, shown: shown, loggedIn: snap.User != nil}
	}
	return nil
}

// close drains pending session writes and telemetry, then releases storage.
func (a *app) close() {
	a.watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.PersistWriteTimeout()+telemetry.ShutdownDrainDuration)
	defer cancel()
	if err := a.store.Flush(ctx); err != nil {
		a.logger.Warn("session: flush", zap.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := a.providers.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("otel shutdown", zap.Error(err))
	}
	if err := a.closeStorage(); err != nil {
		a.logger.Warn("storage close", zap.Error(err))
	}
}

type redirectError struct {
	route    guard.Route
	shown    guard.Route
	loggedIn bool
}

func (e *redirectError) Error() string {
	if !e.loggedIn {
		return fmt.Sprintf("%s needs a login (run: xriep login)", e.route)
	}
	return fmt.Sprintf("%s is not available to this account", e.route)
}
