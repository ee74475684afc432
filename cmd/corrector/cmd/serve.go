package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/corrector/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/corrector/internal/api"
	"github.com/hugo-lorenzo-mato/corrector/internal/core"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configuration API",
	Long: `Start the REST API for resolving and editing correction configuration.
Edits made through the API are saved automatically after a short delay, and
changes are streamed to clients at /api/v1/events.

Examples:
  # Start with the configured address (127.0.0.1:8787)
  corrector serve

  # Start on a custom host and port
  corrector serve --host 0.0.0.0 --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"Host address to bind to (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Port to listen on (default from config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	rt, err := openRuntime(runtimeOptions{autosave: true, bus: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.logger.Error("shutdown flush failed", "error", err)
		}
	}()

	cfg := rt.cfg.Server
	host, port := cfg.Host, cfg.Port
	if serveHost != "" {
		host = serveHost
	}
	if servePort != 0 {
		port = servePort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(rt.engine, rt.store,
		api.WithLogger(rt.logger),
		api.WithEventBus(rt.bus),
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithMaxTextBytes(rt.cfg.Detect.MaxTextBytes),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.logger.Info("serving API", "addr", addr, "store", rt.cfg.Store.Backend)
		return server.ListenAndServe(ctx, addr, cfg.ShutdownDuration())
	})

	if rt.cfg.Store.Watch {
		fileRepo, ok := rt.repo.(*store.FileRepository)
		if !ok {
			return fmt.Errorf("store.watch requires the file backend")
		}
		g.Go(func() error {
			return fileRepo.Watch(ctx, func(scope core.Scope, path string) {
				rt.engine.HandleStoreChange(ctx, scope, path)
			})
		})
	}

	return g.Wait()
}
