package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/httpapi"
	"github.com/Aman-CERP/bookmarks/internal/mcp"
	"github.com/Aman-CERP/bookmarks/internal/output"
	"github.com/Aman-CERP/bookmarks/internal/store"
	"github.com/Aman-CERP/bookmarks/pkg/version"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr        string
		allowWrites bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Serve search, tag listing and bookmark lookup over HTTP, with Prometheus
metrics at /metrics.

The /new form for adding bookmarks answers 403 unless writes are allowed,
with --allow-writes or server.allow_writes.`,
		Example: `  bookmarks serve
  bookmarks serve --addr 127.0.0.1:9000 --allow-writes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("allow-writes") {
				a.cfg.Server.AllowWrites = allowWrites
			}
			return runServe(cmd, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
	cmd.Flags().BoolVar(&allowWrites, "allow-writes", false, "Enable adding bookmarks through /new")

	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.closeStore(s)

	if err := a.ensureCollection(ctx, s); err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Searcher:     a.queryEngine(s),
		Importer:     a.importer(s),
		Builder:      a.pipeline(true),
		AllowWrites:  a.cfg.Server.AllowWrites,
		WriteTimeout: 2 * a.cfg.Ingest.FetchTimeout,
		Logger:       a.logger,
	})
	server := httpapi.NewServer(a.cfg.Server.Addr, router, a.logger)

	out := output.New(cmd.ErrOrStderr())
	out.Statusf("🚀", "Serving bookmarks %s on %s", version.Version, server.Addr())
	if !a.cfg.Server.AllowWrites {
		out.Status("", "Writes are disabled; pass --allow-writes to enable /new")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		out.Status("⏳", "Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("server_stopped")
	return nil
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog to AI assistants over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout.

The server offers the search_bookmarks, list_tags, get_bookmark and
add_bookmark tools and the bookmarks://tags resource. add_bookmark only
works when server.allow_writes is set. Logs are written to the log file
only, since stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer a.closeStore(s)

			if err := a.ensureCollection(ctx, s); err != nil {
				return err
			}

			server, err := mcp.NewServer(a.queryEngine(s), a.importer(s), a.pipeline(true), a.cfg)
			if err != nil {
				return err
			}
			server.SetLogger(a.logger)

			if err := server.Serve(ctx, "stdio"); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

// ensureCollection creates an in-memory collection, which never outlives
// the process. A missing persistent collection is only logged; requests
// then fail until 'bookmarks create' is run.
func (a *app) ensureCollection(ctx context.Context, s store.DocumentStore) error {
	schema := catalog.NewSchemaManager(s, catalog.WithLogger(a.logger))
	exists, err := schema.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if a.cfg.Store.InMemory {
		return schema.Create(ctx)
	}
	a.logger.Warn("collection_missing", slog.String("collection", a.cfg.Store.Collection))
	return nil
}
