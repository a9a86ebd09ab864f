package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Garsondee/opp-block/internal/sim"
	"github.com/Garsondee/opp-block/internal/spectate"
)

func newServeCmd() *cobra.Command {
	var (
		addr   string
		seed   int64
		mode   string
		tickHz int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run one autopilot session live and stream it over websocket",
		Long: `serve plays a single session in real time and streams every tick to
observers connected on /ws. The latest frame is also served as JSON on
/snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			tuning, err := loadTuning(path)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancelRun := context.WithCancel(ctx)
			defer cancelRun()

			w := sim.NewWorld(tuning, seed, sim.WithLogger(logger))
			srv := spectate.NewServer(logger)
			srv.SetPilot(sim.NewAutopilot(sim.ParseAutopilotMode(mode)))

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			serveErr := make(chan error, 1)
			go func() {
				logger.Info("spectator feed listening", "addr", addr, "seed", seed)
				serveErr <- httpSrv.ListenAndServe()
				cancelRun()
			}()

			runErr := srv.Run(ctx, w, tickHz)
			if runErr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "session decided: %s after %.0fs\n", w.Outcome, w.Elapsed)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
			if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8089", "listen address")
	cmd.Flags().Int64Var(&seed, "seed", 42, "world seed")
	cmd.Flags().StringVar(&mode, "mode", "looter", "autopilot mode: idle, looter, hunter")
	cmd.Flags().IntVar(&tickHz, "tick-hz", 60, "ticks per second")
	return cmd
}
