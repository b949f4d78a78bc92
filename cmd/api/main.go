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

	"questlog/api/internal/app"
	"questlog/api/internal/auth"
	"questlog/api/internal/config"
	"questlog/api/internal/content"
	"questlog/api/internal/export"
	"questlog/api/internal/ratelimit"
	"questlog/api/internal/search"
	"questlog/api/internal/store"
)

func main() {
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

	catalog, err := content.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}
	log.Printf("catalog loaded: %d quests, %d traders", catalog.Graph.Len(), len(catalog.Traders))

	dataStore := store.NewPostgresStore(db)

	records := search.RecordsFromCatalog(catalog)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewScan(records))
	searchService.ReindexAll(records)

	var limiter *ratelimit.RedisLimiter
	if strings.TrimSpace(cfg.RedisURL) != "" {
		limiter, err = ratelimit.NewRedisLimiter(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer limiter.Close()
	} else {
		log.Printf("WARNING: no Redis configured, rate limiting disabled")
	}

	companions := auth.NewCompanionValidator(dataStore)
	service := app.New(cfg, dataStore, catalog, searchService, export.NewService(), companions)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, limiterOrNil(limiter))
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Questlog API listening on %s", cfg.Addr)
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

// limiterOrNil keeps a typed nil *RedisLimiter from sneaking into the
// handler's interface field and defeating its nil check.
func limiterOrNil(limiter *ratelimit.RedisLimiter) app.RateLimiter {
	if limiter == nil {
		return nil
	}
	return limiter
}
