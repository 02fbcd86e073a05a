package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/photogridlab/photogrid/internal/metrics"
	"github.com/photogridlab/photogrid/internal/server"
	"github.com/photogridlab/photogrid/pkg/cache"
	"github.com/photogridlab/photogrid/pkg/pipeline"
	"github.com/photogridlab/photogrid/pkg/source/local"
	"github.com/photogridlab/photogrid/pkg/thumb"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "Serve layouts and thumbnails over HTTP",
		Long: `Serve layouts and thumbnails over HTTP.

The server scans the directory once at startup, then watches it for
changes and rescans automatically. Layouts are computed per request and
cached; thumbnails are decoded on demand behind a bounded in-memory
cache.

With --redis, computed layouts are shared through Redis so multiple
replicas behind one gallery skip each other's solves.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) > 0 {
				root = args[0]
			}
			return c.runServe(cmd.Context(), root, addr, redisAddr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for the shared layout cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the cross-run cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, root, addr, redisAddr string, noCache bool) error {
	opts := pipeline.Options{Root: root, Logger: c.Logger}
	c.Config.ApplyTo(&opts)
	if addr == "" {
		addr = c.Config.Server.Addr
	}
	if addr == "" {
		addr = ":8080"
	}
	if redisAddr == "" {
		redisAddr = c.Config.Server.Redis
	}

	metrics.Register()

	backend, err := c.serveCache(ctx, redisAddr, noCache)
	if err != nil {
		return err
	}

	loader := thumb.NewLoader(
		thumb.NewCache(c.Config.Thumbs.MaxEntries, c.Config.Thumbs.MaxBytes),
		nil,
		c.Config.Thumbs.Workers,
	)
	runner := pipeline.NewRunner(backend, nil, loader, c.Logger)
	defer runner.Close()

	srv := server.New(runner, opts, c.Logger)
	if err := srv.Refresh(ctx); err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}

	watcher := local.NewWatcher(opts.Root, func() {
		if err := srv.Refresh(context.Background()); err != nil {
			c.Logger.Error("rescan after change", "err", err)
		}
	}, local.WithWatchLogger(c.Logger))
	if err := watcher.Start(ctx); err != nil {
		c.Logger.Warn("directory watch disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr, "root", opts.Root)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// serveCache picks the layout cache backend for the server: Redis when
// configured, the local file cache otherwise.
func (c *CLI) serveCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		backend, err := cache.NewRedisCache(ctx, redisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", redisAddr, err)
		}
		return backend, nil
	}
	return newCache(false)
}
