package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/season"
	"github.com/derekprior/leaguenight/internal/store/memory"
	"github.com/derekprior/leaguenight/internal/store/mongo"
	"github.com/derekprior/leaguenight/internal/store/sqlite"
	"github.com/derekprior/leaguenight/internal/telemetry"
)

const defaultConfigFile = "league.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

// store is an opened repository plus what the process needs to check and
// release it.
type store struct {
	league.Repository
	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func openStore(ctx context.Context, env *config.Env) (*store, error) {
	switch env.Store {
	case "memory":
		return &store{
			Repository: memory.New(),
			ping:       func(context.Context) error { return nil },
			close:      func(context.Context) error { return nil },
		}, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, env.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &store{
			Repository: s,
			ping:       s.Ping,
			close:      func(context.Context) error { return s.Close() },
		}, nil
	case "mongo":
		s, err := mongo.Open(ctx, env.MongoURI, env.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return &store{Repository: s, ping: s.Ping, close: s.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", env.Store)
	}
}

// app holds everything a command needs once config, store and service are
// up. close releases them in reverse order.
type app struct {
	cfg    *config.Config
	env    *config.Env
	logger *slog.Logger
	store  *store
	svc    *season.Service

	shutdownTracing func(context.Context) error
}

func newLogger(env *config.Env) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: env.LogLevel}))
}

// openApp loads configuration and connects the season service to the
// configured store. Extra options are applied after the defaults.
func openApp(ctx context.Context, configFlag string, opts ...season.Option) (*app, error) {
	configPath, err := resolveConfigPath(configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	logger := newLogger(env)

	shutdown, err := telemetry.Setup(ctx, "leaguenight", env.OTELEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	st, err := openStore(ctx, env)
	if err != nil {
		shutdown(ctx)
		return nil, fmt.Errorf("opening %s store: %w", env.Store, err)
	}
	logger.Debug("store opened", slog.String("store", env.Store))

	base := []season.Option{season.WithLogger(logger)}
	svc := season.New(st, cfg, append(base, opts...)...)

	return &app{
		cfg:             cfg,
		env:             env,
		logger:          logger,
		store:           st,
		svc:             svc,
		shutdownTracing: shutdown,
	}, nil
}

// close flushes pending scores, then releases the store and tracer.
func (a *app) close(ctx context.Context) {
	a.svc.Close()
	if err := a.store.close(ctx); err != nil {
		a.logger.Error("closing store", slog.Any("error", err))
	}
	if err := a.shutdownTracing(ctx); err != nil {
		a.logger.Error("shutting down tracing", slog.Any("error", err))
	}
}

// names maps team ids to names for display.
func (a *app) names(ctx context.Context) (map[string]string, error) {
	teams, err := a.svc.Teams(ctx)
	if err != nil {
		return nil, err
	}
	return league.Roster(teams).Names(), nil
}
