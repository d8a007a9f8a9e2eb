package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dgallion1/clausegest/internal/config"
	"github.com/dgallion1/clausegest/internal/mcpserver"
	"github.com/dgallion1/clausegest/internal/pipeline"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("clausegest-mcp version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	// stdout carries the protocol.
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}
	cfg.ValidateSchema = false

	deps, err := pipeline.Open(cfg)
	if err != nil {
		log.Error("opening stores", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	server := mcpserver.New(&mcpserver.Tools{Catalog: deps.Catalog, Index: deps.Index, Log: log}, version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("mcp server ready", "index_dir", cfg.IndexDir)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
