package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/vidquiz/internal/emitter"
	"github.com/abhisek/vidquiz/internal/metrics"
	"github.com/abhisek/vidquiz/internal/realtime"
	"github.com/abhisek/vidquiz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quiz HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()
		cfg, log := env.cfg, env.log

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var bus realtime.Bus
		if cfg.Redis.Addr != "" {
			bus, err = realtime.NewRedisBus(log, realtime.RedisOptions{Addr: cfg.Redis.Addr, Channel: cfg.Redis.Channel})
			if err != nil {
				return fmt.Errorf("connect event bus: %w", err)
			}
			log.Info("redis event bus connected", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
		} else {
			bus = realtime.NewLocalBus()
		}
		defer bus.Close()

		m := metrics.New()
		em := emitter.New(emitter.NewStoreSink(env.store), emitter.Options{
			Logger:       log,
			Metrics:      m,
			Bus:          bus,
			WriteTimeout: cfg.Emitter.WriteTimeout,
		})

		srv := server.New(server.Deps{
			Store:   env.store,
			Emitter: em,
			Bus:     bus,
			Metrics: m,
			Logger:  log,
		}, server.Options{
			Addr:          cfg.Server.Addr,
			Mode:          cfg.Server.Mode,
			CORSOrigins:   cfg.Server.CORSOrigins,
			SessionIdle:   cfg.Server.SessionIdle,
			PassThreshold: cfg.Quiz.PassThreshold,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(gctx)
		})
		g.Go(func() error {
			return bus.StartForwarder(gctx, func(msg realtime.Message) {
				log.Debug("event", "event", msg.Event, "session_id", msg.SessionID)
			})
		})
		err = g.Wait()

		// Sessions are closed by now; flush what they submitted.
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Emitter.DrainTimeout)
		defer cancel()
		if derr := em.Close(drainCtx); derr != nil {
			log.Warn("emitter drain incomplete", "pending", em.Pending(), "error", derr)
		}
		log.Info("server stopped")
		return err
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
}
