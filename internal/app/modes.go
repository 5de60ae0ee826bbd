package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cryptolens/womtracker/internal/discovery"
	"github.com/cryptolens/womtracker/internal/pipeline"
	"github.com/cryptolens/womtracker/internal/server"
	"github.com/cryptolens/womtracker/internal/server/handler"
	"github.com/cryptolens/womtracker/internal/server/ws"
)

// ServeMode runs only the HTTP API. Token data comes from whatever the
// last pipeline run left in the store and cache.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// TrackMode runs only the discovery/scoring pipeline, headless.
func (a *App) TrackMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting track mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startPipeline(ctx, g, deps, nil)
	return g.Wait()
}

// FullMode runs the pipeline and the HTTP API in one process. The API's
// cycle trigger feeds an extra run into the pipeline loop.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	triggerCh := make(chan struct{}, 1)
	a.startPipeline(ctx, g, deps, triggerCh)
	a.startHTTPServer(ctx, g, deps, triggerCh)

	return g.Wait()
}

// startPipeline builds the orchestrator and starts its loop on the group.
func (a *App) startPipeline(ctx context.Context, g *errgroup.Group, deps *Dependencies, triggerCh <-chan struct{}) {
	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Feed:      deps.Feed,
		Posts:     deps.PostFeed,
		Scorer:    deps.Scorer,
		Tokens:    deps.Tokens,
		PostStore: deps.Posts,
		Cache:     deps.Cache,
		Locks:     deps.Locks,
		Bus:       deps.Bus,
		Notifier:  deps.Notifier,
	}, pipeline.Config{
		Chain: a.cfg.Discovery.Chain,
		Criteria: discovery.Criteria{
			MinMakerCount:   a.cfg.Discovery.MinMakerCount,
			MaxAgeHours:     a.cfg.Discovery.MaxAgeHours,
			MinVolumeUSD:    a.cfg.Discovery.MinVolumeUSD,
			MinLiquidityUSD: a.cfg.Discovery.MinLiquidityUSD,
			MinMarketCapUSD: a.cfg.Discovery.MinMarketCapUSD,
		},
		RetentionWindow: time.Duration(a.cfg.Pipeline.RetentionHours) * time.Hour,
		MinFollowers:    a.cfg.Sentiment.MinFollowers,
		ScoreWorkers:    a.cfg.Pipeline.ScoreWorkers,
		LockTTL:         a.cfg.Pipeline.LockTTL.Duration,
	}, a.logger)

	interval := a.cfg.Pipeline.Interval.Duration
	g.Go(func() error {
		err := orch.RunLoop(ctx, interval, triggerCh)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("pipeline loop: %w", err)
	})
}

// startHTTPServer assembles handlers, the WebSocket hub, and the server
// itself, and starts them on the group. triggerCh may be nil when no
// pipeline runs in this process.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, triggerCh chan<- struct{}) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "http server disabled by config")
		return
	}

	cycleH := handler.NewCycleHandler(a.logger)
	if triggerCh != nil {
		cycleH = cycleH.WithTriggerChannel(triggerCh)
	}

	// The typed-nil *apify.PostFeed must not reach the interface field.
	var liveFeed handler.PostFetcher
	if deps.PostFeed != nil {
		liveFeed = deps.PostFeed
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.cfg.Mode, a.cfg.Storage.Backend, a.logger),
		Tokens: handler.NewTokenHandler(deps.Tokens, deps.Posts, deps.Cache, a.logger),
		Live:   handler.NewLiveHandler(liveFeed, deps.Scorer, a.cfg.Sentiment.MinFollowers, a.logger),
		Cycle:  cycleH,
	}
	if deps.Lookup != nil {
		handlers.Search = handler.NewSearchHandler(deps.Lookup, a.logger)
	}

	// WebSocket hub only works with the Redis signal bus.
	var hub *ws.Hub
	if deps.Bus != nil {
		hub = ws.NewHub(deps.Bus, pipeline.TokenChannel, a.logger)
		g.Go(func() error {
			if err := hub.Run(ctx); ctx.Err() == nil {
				return fmt.Errorf("ws hub: %w", err)
			}
			return nil
		})
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		ScheduleKey: a.cfg.Server.ScheduleKey,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
