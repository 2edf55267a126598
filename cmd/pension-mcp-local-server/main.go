package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/Epistemic-Technology/pension-mcp/internal/config"
	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
	"github.com/Epistemic-Technology/pension-mcp/server"
)

func main() {
	config.RegisterFlags(pflag.CommandLine, config.DefaultConfig())
	pflag.Parse()

	cfg, err := config.Load(pflag.CommandLine)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(logger.LogConfig{Level: cfg.LogLevel})
	if err != nil {
		// Fall back to stderr if logger initialization fails
		panic(err)
	}

	log.Info("Starting pension-mcp server %s (%s)", server.Version, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.CreateServer(cfg, log)
	if !cfg.IsHTTPMode() {
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			log.Fatal("Server failed: %v", err)
		}
		return
	}

	httpServer := &http.Server{Addr: cfg.Addr, Handler: server.NewHTTPHandler(srv, log)}
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	log.Info("Listening on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed: %v", err)
	}
}
