package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/oficina-cloud/diagnose/pkg/api"
	"github.com/oficina-cloud/diagnose/pkg/catalog"
	"github.com/oficina-cloud/diagnose/pkg/chassis"
	"github.com/oficina-cloud/diagnose/pkg/diag"
)

const version = "1.0.0"

type config struct {
	Addr     string `yaml:"addr"`
	DBPath   string `yaml:"db_path"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "seed":
		cmdSeed(os.Args[2:])
	case "call":
		cmdCall(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: diagnose <command>\n\nCommands:\n  serve   Start the suggestion server\n  seed    Load problem seed packs into the catalog\n  call    Invoke an MCP tool on a running server over QUIC\n")
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := loadConfig(*cfgPath, logger)

	// Open the problem catalog.
	store, err := catalog.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	total, active, err := store.Count(ctx)
	if err != nil {
		logger.Error("failed to read catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("catalog opened", "path", cfg.DBPath, "problems", total, "active", active)

	engine := diag.NewEngine(store)

	// Transports: HTTP router + MCP tools over the same endpoints.
	router := api.NewRouter(engine, store, logger)

	mcpSrv := mcpserver.NewMCPServer("diagnose", version,
		mcpserver.WithToolCapabilities(false),
	)
	api.RegisterMCPTools(mcpSrv, engine, logger)

	srv, err := chassis.New(chassis.Config{
		Addr:      cfg.Addr,
		CertFile:  cfg.CertFile,
		KeyFile:   cfg.KeyFile,
		Handler:   router,
		MCPServer: mcpSrv,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := srv.Start(ctx); err != nil {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := config{
		Addr:   ":8430",
		DBPath: "catalog.db",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}
