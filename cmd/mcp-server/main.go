// Package main is the stdio MCP server exposing the PharmaGuard aggregator.
// It requires no external services: runs are archived to a local SQLite file.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pharmaguard-dashboard/internal/config"
	"github.com/pharmaguard-dashboard/internal/mcp"
	"github.com/pharmaguard-dashboard/internal/setup"
)

func main() {
	// stdout carries the protocol
	log.SetOutput(os.Stderr)

	if len(os.Args) > 1 && os.Args[1] == "setup" {
		cli := setup.NewCLI(os.Stdout)
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	cfg := config.LoadLiteConfig()

	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, stopping MCP server...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		log.Printf("MCP server failed: %v", err)
		return
	}

	log.Println("PharmaGuard MCP server stopped")
}
