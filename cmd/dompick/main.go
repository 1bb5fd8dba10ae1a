// Command dompick hosts pages in Chrome and lets a user pick DOM elements
// inside them. Every pick is reported as a structural descriptor to the
// configured sinks and through the control API.
//
// Usage:
//
//	dompick -config dompick.yaml                       # host pages from YAML config
//	dompick -url https://example.com                   # quick single page, picking on
//	dompick -describe page.html -select 'p.note'       # describe an element offline
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/dompick/idgen"
	"github.com/hazyhaar/dompick/picker"
)

func main() {
	configPath := flag.String("config", "", "path to dompick.yaml config file")
	singleURL := flag.String("url", "", "host a single URL with picking enabled (stdout sink)")
	describePath := flag.String("describe", "", "HTML file to describe an element of, then exit")
	selector := flag.String("select", "", "element to describe: #id, tag, .class or tag.class")
	httpAddr := flag.String("http", "", "control API listen address (overrides config)")
	mcpStdio := flag.Bool("mcp-stdio", false, "serve the MCP tools on stdin/stdout")
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
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := serveOptions{httpAddr: *httpAddr, mcpStdio: *mcpStdio}
	if err := run(ctx, logger, *configPath, *singleURL, *describePath, *selector, opts); err != nil {
		logger.Error("dompick: fatal", "error", err)
		os.Exit(1)
	}
}

type serveOptions struct {
	httpAddr string
	mcpStdio bool
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL, describePath, selector string, opts serveOptions) error {
	if describePath != "" {
		return runDescribe(describePath, selector)
	}

	if singleURL != "" {
		cfg := &picker.Config{
			Pages: []picker.PageConfig{{ID: idgen.New(), URL: singleURL, AutoEnable: true}},
			Sinks: []picker.SinkConfig{{Type: "stdout"}},
		}
		return serve(ctx, logger, cfg, opts)
	}

	if configPath != "" {
		cfg, err := picker.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if len(cfg.Sinks) == 0 {
			cfg.Sinks = []picker.SinkConfig{{Type: "stdout"}}
		}
		return serve(ctx, logger, cfg, opts)
	}

	fmt.Fprintln(os.Stderr, "usage: dompick -config <file> | -url <url> | -describe <file.html> -select <selector>")
	os.Exit(2)
	return nil
}

func runDescribe(path, selector string) error {
	if selector == "" {
		return errors.New("describe: -select is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("describe: %w", err)
	}
	defer f.Close()

	desc, err := picker.Describe(f, selector)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(desc)
}

func serve(ctx context.Context, logger *slog.Logger, cfg *picker.Config, opts serveOptions) error {
	if opts.mcpStdio {
		// stdout carries the MCP session.
		kept := cfg.Sinks[:0]
		for _, sc := range cfg.Sinks {
			if sc.Type == "stdout" {
				logger.Warn("dompick: stdout sink disabled while serving MCP on stdio")
				continue
			}
			kept = append(kept, sc)
		}
		cfg.Sinks = kept
	}

	sinks, stream, err := picker.BuildSinks(cfg.Sinks, logger)
	if err != nil {
		return err
	}

	p := picker.New(cfg, logger, sinks...)
	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer p.Stop()

	mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "dompick", Version: "1.0.0"}, nil)
	p.RegisterMCP(mcpSrv)

	if opts.mcpStdio {
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				logger.Error("dompick: mcp stdio", "error", err)
			}
		}()
	}

	addr := cfg.HTTP.Addr
	if opts.httpAddr != "" {
		addr = opts.httpAddr
	}
	if addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           p.Handler(stream, mcpSrv),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		go func() {
			logger.Info("dompick: control API listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("dompick: http", "error", err)
			}
		}()
	}

	<-ctx.Done()
	return nil
}
