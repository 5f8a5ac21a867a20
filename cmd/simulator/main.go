package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whatsappmarket/campaign-console/environments"
	"github.com/whatsappmarket/campaign-console/internal/simulator"
	"github.com/whatsappmarket/campaign-console/pkg/logger"
)

// Runs the campaign service simulator for local development: point
// CAMPAIGN_API_BASE_URL at it and the console works without the hosted
// backend. State is in memory only.
func main() {
	logger.Init()
	cfg := environments.Load()

	server := simulator.New()

	go func() {
		if err := server.Start(cfg.Simulator.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("simulator failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down simulator...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
}
