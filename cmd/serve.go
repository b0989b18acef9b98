package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/mcp"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/watcher"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var serveHTTP string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools",
	Long: `Serve getDesignModel, validate, suggestFixes, applyFixes and the
supplementary tools over stdio, or over streamable HTTP with --http.

The model directory is watched and reloaded on change when watch is on.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "Listen address for streamable HTTP (e.g. :8080); stdio when empty")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	if a.cfg.Watch && a.loader != nil {
		w, err := watcher.NewWatcher(a.cfg.ModelDir, a.loader, a.holder, a.logger)
		if err != nil {
			a.logger.Warn("failed to start model watcher", "dir", a.cfg.ModelDir, "err", err)
		} else {
			w.Start()
			defer w.Close()
		}
	}

	server := mcp.New(a.engine, a.holder, a.logger).Server()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveHTTP == "" {
		a.logger.Info("serving MCP over stdio")
		return server.Run(ctx, &sdk.StdioTransport{})
	}

	handler := sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return server
	}, nil)
	srv := &http.Server{Addr: serveHTTP, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("serving MCP over streamable HTTP", "addr", serveHTTP)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
