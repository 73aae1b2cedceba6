package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akashicode/pdfworker/internal/display"
	"github.com/akashicode/pdfworker/internal/engine"
	"github.com/akashicode/pdfworker/internal/logger"
	"github.com/akashicode/pdfworker/internal/resource"
	"github.com/akashicode/pdfworker/internal/rpc"
	"github.com/akashicode/pdfworker/internal/server"
)

var serveQuiet bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document worker",
	Long: `Runs the document worker.

Without --listen the worker speaks newline-delimited JSON on stdin/stdout and
exits when stdin closes. With --listen it serves the same protocol over
websocket:
  WS   /worker   - one worker session per connection
  GET  /health   - health status

Requests:  {"id": 1, "action": "getFulltext", "data": {"buf": "<base64>", "password": "", "maxPages": 10}}
           {"id": 2, "action": "getRecognizerData", "data": {"buf": "<base64>", "password": ""}}
Responses: {"responseID": 1, "data": {...}} or {"responseID": 1, "error": {...}}

Resource requests of the worker ({"id", "action": "FetchBuiltInCMap" or
"FetchStandardFontData", "data": name}) must be answered with a base64
string, or null when the host has no such resource.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "serve websocket on this address instead of stdio, e.g. :8090")
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "do not print the startup banner")
	_ = viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if appCfg.Server.Listen == "" {
		if err := appCfg.ValidateStdio(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := resource.NewCache(localFetcher())
	if err != nil {
		return fmt.Errorf("create resource cache: %w", err)
	}

	cfg := server.Config{
		Engine:      engine.NewPDF(),
		Cache:       cache,
		CORSOrigins: appCfg.Server.CORSOrigins,
	}
	if appCfg.Resources.CMapDir != "" || appCfg.Resources.FontDir != "" {
		cfg.Local = localFetcher()
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	if !serveQuiet {
		display.PrintBanner(display.WorkerInfo{
			Version:  version,
			Listen:   appCfg.Server.Listen,
			CMapDir:  appCfg.Resources.CMapDir,
			FontDir:  appCfg.Resources.FontDir,
			LogLevel: appCfg.Log.Level,
		})
	}

	if appCfg.Server.Listen != "" {
		return srv.ListenAndServe(ctx, appCfg.Server.Listen)
	}
	return serveStdio(ctx, srv)
}

// serveStdio runs the worker on stdin/stdout. A signal stops it without
// waiting for stdin.
func serveStdio(ctx context.Context, srv *server.Server) error {
	log := logger.WithComponent("serve")
	log.Info().Msg("worker ready on stdio")

	done := make(chan error, 1)
	go func() {
		done <- srv.ServeConn(ctx, rpc.NewStream(os.Stdin, os.Stdout))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("serve stdio: %w", err)
		}
		log.Info().Msg("stdin closed, worker stopped")
		return nil
	case <-ctx.Done():
		log.Info().Msg("interrupted, worker stopped")
		return nil
	}
}

func localFetcher() resource.DirFetcher {
	return resource.DirFetcher{
		CMapDir: appCfg.Resources.CMapDir,
		FontDir: appCfg.Resources.FontDir,
	}
}
