package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marksense/api/internal/ai"
	"marksense/api/internal/app"
	"marksense/api/internal/config"
	"marksense/api/internal/notegit"
	"marksense/api/internal/search"
	"marksense/api/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	var historyService *notegit.Service
	if cfg.ReposDir != "" {
		if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
			log.Fatalf("failed to create repos dir: %v", err)
		}
		historyService = notegit.New(cfg.ReposDir)
	} else {
		log.Printf("note version history disabled: MARKSENSE_REPOS_DIR is empty")
	}

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts)

	if cfg.OracleAPIKey == "" {
		log.Printf("WARNING: no oracle API key configured, AI responses will fall back to defaults")
	}
	oracle := ai.NewClient(cfg.OracleBaseURL, cfg.OracleAPIKey, cfg.OracleModel)
	orchestrator := ai.NewOrchestrator(oracle)

	service := app.New(cfg, dataStore, searchService, historyService, orchestrator)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("MarkSense API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
