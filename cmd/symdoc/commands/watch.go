package commands

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
	"git.home.luguber.info/inful/symdoc/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce    time.Duration `help:"Wait this long for changes to settle" default:"300ms"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address, for example ':9102'"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return RunWatch(ctx, g, cfg, w.Debounce, w.MetricsAddr)
}

// RunWatch builds cfg and rebuilds it on every input change until ctx ends.
func RunWatch(ctx context.Context, g *Global, cfg *config.Config, debounce time.Duration, metricsAddr string) error {
	r, err := newRunner(g, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	if metricsAddr != "" {
		_, stop, err := serveMetrics(g, r, metricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	w := watch.New(watchRoots(cfg), func(ctx context.Context) error {
		result, err := r.build(ctx)
		if err != nil {
			return err
		}
		printResult(g, result)
		return nil
	},
		watch.WithDebounce(debounce),
		watch.WithIgnoredDirs(cfg.Path(cfg.Output.Directory)),
		watch.WithLogger(g.Logger))
	return w.Run(ctx)
}

// watchRoots lists the directories holding inputs and guides.
func watchRoots(cfg *config.Config) []string {
	patterns := cfg.InputPaths()
	for _, p := range cfg.Documentation {
		patterns = append(patterns, cfg.Path(p))
	}
	return watch.Roots(patterns)
}

// serveMetrics serves the runner's registry on addr and returns the bound
// address and a function stopping the server.
func serveMetrics(g *Global, r *runner, addr string) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.WrapError(err, errors.CategoryRuntime, "failed to listen for metrics").
			WithContext("addr", addr).
			Build()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(r.registry))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			g.Logger.Warn("Metrics server stopped", logfields.Error(err))
		}
	}()
	g.Logger.Info("Serving metrics", "addr", ln.Addr().String())
	return ln.Addr().String(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			g.Logger.Warn("Metrics server shutdown error", logfields.Error(err))
		}
	}, nil
}
