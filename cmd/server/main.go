package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/estate-intake/internal/analytics"
	"github.com/ignite/estate-intake/internal/api"
	"github.com/ignite/estate-intake/internal/config"
	"github.com/ignite/estate-intake/internal/intake"
	"github.com/ignite/estate-intake/internal/metacapi"
	"github.com/ignite/estate-intake/internal/sheets"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store := sheets.NewClient(cfg.Sheets)
	if !store.IsConfigured() {
		log.Println("WARNING: Google Sheets credentials not configured; registrations will fail")
	}
	collector := analytics.NewClient(cfg.Analytics)
	if !collector.IsConfigured() {
		log.Println("analytics collector key not configured; events will be dropped")
	}
	relay := metacapi.NewClient(cfg.MetaCAPI)
	if !relay.IsConfigured() {
		log.Println("Meta CAPI access token not configured; conversions will be skipped")
	}

	svc := intake.NewService(store, collector, relay)
	handler := api.NewHandler(svc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(cfg.Server.AllowedOrigins),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("intake service listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down intake service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
