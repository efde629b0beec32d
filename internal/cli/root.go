// Package cli wires the engine into the `ochre` binary's cobra command
// tree: apply, reapply, destroy, test, enter, list, and history.
package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/blythed/ochre/internal/config"
	"github.com/blythed/ochre/internal/logging"
	"github.com/blythed/ochre/pkg/ochre"
)

type rootFlags struct {
	registryRoot string
	configPath   string
	logLevel     string
	logFormat    string
	metricsAddr  string
	lock         bool
}

// NewRootCommand builds the top-level `ochre` cobra.Command.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "ochre",
		Short:         "Apply and destroy content-addressed components against a filesystem registry",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.registryRoot, "registry-root", "./registry", "root directory of the component registry")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "optional YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn, or error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "json", "json or text")
	root.PersistentFlags().StringVar(&flags.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
	root.PersistentFlags().BoolVar(&flags.lock, "lock", true, "hold an advisory lock on the registry for the duration of apply/destroy")

	root.AddCommand(
		newApplyCommand(flags),
		newReapplyCommand(flags),
		newDestroyCommand(flags),
		newTestCommand(flags),
		newEnterCommand(flags),
		newListCommand(flags),
		newHistoryCommand(flags),
	)
	return root
}

func resolveConfig(flags *rootFlags) (config.Config, *slog.Logger, error) {
	loader := config.NewLoader("OCHRE_")
	defaults := config.Defaults()
	defaults.RegistryRoot = flags.registryRoot
	defaults.Log.Level = flags.logLevel
	defaults.Log.Format = flags.logFormat
	defaults.MetricsAddr = flags.metricsAddr
	defaults.Lock = flags.lock
	cfg, err := loader.Load(defaults, flags.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, logger, nil
}

func newEngine(flags *rootFlags) (*ochre.Engine, error) {
	cfg, logger, err := resolveConfig(flags)
	if err != nil {
		return nil, err
	}
	eng, err := ochre.NewEngine(cfg.RegistryRoot, logger)
	if err != nil {
		return nil, err
	}
	eng.Lock = cfg.Lock
	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr, eng, logger)
	}
	return eng, nil
}

// serveMetrics registers the engine's executor metrics on a dedicated
// prometheus.Registry and serves them on addr in the background. Failures
// are logged, not fatal: a verb should still run if the metrics listener
// can't bind.
func serveMetrics(addr string, eng *ochre.Engine, logger *slog.Logger) {
	reg := prometheus.NewRegistry()
	if err := eng.Executor.Metrics.Register(reg); err != nil {
		logger.Warn("failed to register metrics", "error", err)
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
}

func confirmPrompt(summary string) bool {
	fmt.Fprintln(os.Stdout, summary)
	fmt.Fprint(os.Stdout, "Proceed? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
