package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/httpapi"
	"github.com/derekprior/leaguenight/internal/season"
)

func runServe(ctx context.Context, configFlag string) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	hub := httpapi.NewHub(newLogger(env))

	a, err := openApp(ctx, configFlag, season.WithPublisher(hub))
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	srv := httpapi.New(a.env.HTTPAddr, a.logger, a.svc, hub, map[string]httpapi.Check{
		"store": a.store.ping,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting http server",
			slog.String("addr", a.env.HTTPAddr),
			slog.String("store", a.env.Store),
			slog.String("season", a.cfg.Season.Name))
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down http server")
		if err := srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	return g.Wait()
}
