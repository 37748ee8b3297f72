// Command revpull extracts reviews from map-listing pages.
//
// Usage:
//
//	revpull -url https://example.com/org/1/reviews      # one-shot, JSON to stdout
//	revpull -url ... -format md                         # one-shot, markdown report
//	revpull -config revpull.yaml -serve                 # HTTP API
//	revpull -config revpull.yaml -mcp                   # MCP server over stdio
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/revpull/service"
)

func main() {
	configPath := flag.String("config", "", "path to revpull.yaml config file")
	url := flag.String("url", "", "extract reviews from a single URL and exit")
	format := flag.String("format", "json", "one-shot output format: json, md")
	serve := flag.Bool("serve", false, "run the HTTP API")
	mcpMode := flag.Bool("mcp", false, "run the MCP server over stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *url, *format, *serve, *mcpMode); err != nil {
		logger.Error("revpull: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, url, format string, serve, mcpMode bool) error {
	cfg := service.DefaultConfig()
	if configPath != "" {
		loaded, err := service.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	svc, err := service.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer svc.Close()

	switch {
	case url != "":
		return runOnce(ctx, svc, url, format)
	case serve:
		return runServe(ctx, logger, svc, cfg.Serve.Addr)
	case mcpMode:
		return svc.ServeMCP(ctx)
	}

	fmt.Fprintln(os.Stderr, "usage: revpull -url <url> | -serve | -mcp")
	os.Exit(1)
	return nil
}

func runOnce(ctx context.Context, svc *service.Service, url, format string) error {
	res, err := svc.Extract(ctx, url)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	switch format {
	case "md":
		os.Stdout.WriteString(service.RenderMarkdown(res))
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	}

	if res.Err != nil {
		return fmt.Errorf("run %s: %s: %w", res.RunID, res.Status, res.Err)
	}
	return nil
}

func runServe(ctx context.Context, logger *slog.Logger, svc *service.Service, addr string) error {
	srv := &http.Server{Addr: addr, Handler: svc.Router()}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	logger.Info("revpull: http listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
