package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/hexzone/internal/server"
	"github.com/sells-group/hexzone/internal/surge"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the surge overlay to a web map client",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initSurge(cfg)
		if err != nil {
			return err
		}

		loop := surge.NewLoop(env.Manager, 16)
		srv := server.New(loop, env.Manager, env.Style, env.Generator, server.Options{
			AdvanceRPS:   cfg.Server.AdvanceRPS,
			AdvanceBurst: cfg.Server.AdvanceBurst,
			CORSOrigins:  cfg.Server.CORSOrigins,
			Gatherer:     env.Registry,
			GridCache:    env.Generator.Cache(),
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return loop.Run(gctx) })
		g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Port) })

		// The map is ready as soon as the loop runs; render the first zone.
		if err := loop.Submit(gctx, surge.EventMapLoaded); err != nil && !errors.Is(err, gctx.Err()) {
			zap.L().Warn("initial zone load incomplete", zap.Error(err))
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
