package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recallkit/recall/internal/observability"
	"github.com/recallkit/recall/pkg/memory"
)

var maintainFlags = struct {
	watch       bool
	metricsAddr string
}{}

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run store maintenance",
	Long: `Run a maintenance pass: backfill embeddings for records stored
without vectors and refresh store statistics. With --watch the pass
repeats on the configured schedule and a Prometheus endpoint is served.`,
	Args: cobra.NoArgs,
	RunE: runMaintain,
}

func init() {
	maintainCmd.Flags().BoolVar(&maintainFlags.watch, "watch", false, "keep running on the configured schedule")
	maintainCmd.Flags().StringVar(&maintainFlags.metricsAddr, "metrics-addr", ":9187", "metrics listen address in watch mode")
	rootCmd.AddCommand(maintainCmd)
}

func runMaintain(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	janitor, err := memory.NewJanitor(memory.JanitorConfig{
		Store:    a.store,
		Embedder: a.gateway,
		Schedule: a.cfg.Janitor.Schedule,
		Batch:    a.cfg.Janitor.Batch,
		Logger:   a.log.Zerolog(),
	})
	if err != nil {
		return err
	}

	if !maintainFlags.watch {
		return janitor.RunOnce(cmd.Context())
	}

	if err := janitor.Start(); err != nil {
		return err
	}
	defer janitor.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	srv := &http.Server{Addr: maintainFlags.metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl := a.log.Zerolog()
			zl.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	defer srv.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "maintenance running, metrics on %s\n", maintainFlags.metricsAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-cmd.Context().Done():
	}
	return nil
}
