package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rssdigest/app"
	"rssdigest/internal/control"
	"rssdigest/internal/metrics"
)

func newWatchCmd() *cobra.Command {
	var skipFirst bool
	c := &cobra.Command{
		Use:   "watch",
		Short: "Update feeds on an interval until interrupted",
		Long: `watch runs a feed update batch every UPDATE_INTERVAL and serves a control API on
CONTROL_ADDR (set-interval, set-concurrency, status and Prometheus /metrics).
Only one watch can run per control address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := loadDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			listener, err := control.TryListen(d.cfg.ControlAddr)
			if err != nil {
				if errors.Is(err, control.ErrAlreadyRunning) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Background process is already running")
				}
				return err
			}
			defer listener.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			observer, err := metrics.New(reg)
			if err != nil {
				return err
			}

			updater, gate, err := d.newUpdater(observer)
			if err != nil {
				return err
			}

			sched := app.NewScheduler(func(ctx context.Context) {
				updater.UpdateAll(ctx)
			}, d.cfg.Update.Interval, !skipFirst, d.logger.Named("scheduler"))

			srv := control.NewServer(sched, gate, updater, reg)
			srv.Server.Handler = srv
			go func() {
				if err := srv.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.logger.Error("control server error", zap.Error(err))
				}
			}()

			ctx := cmd.Context()
			if err := sched.Start(ctx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			d.logger.Info("watch started",
				zap.Duration("interval", d.cfg.Update.Interval),
				zap.Int("enrich_concurrency", gate.Concurrency()),
				zap.String("control_addr", listener.Addr().String()))
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d feeds (interval = %s, control = %s)\n",
				len(d.registry.Sources()), d.cfg.Update.Interval, listener.Addr())

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				d.logger.Warn("control server shutdown", zap.Error(err))
			}
			if err := sched.Stop(); err != nil {
				return fmt.Errorf("error during shutdown: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Graceful shutdown: scheduler stopped")
			return nil
		},
	}
	c.Flags().BoolVar(&skipFirst, "skip-first", false, "wait one interval before the first batch")
	return c
}
