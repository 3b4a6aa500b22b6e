package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tahles/directory-crawler/internal/business/crawler"
	"github.com/tahles/directory-crawler/internal/business/crawler/adapters/sexfire"
	"github.com/tahles/directory-crawler/internal/business/crawler/adapters/titti"
	"github.com/tahles/directory-crawler/internal/platform/config"
	apirouter "github.com/tahles/directory-crawler/internal/platform/http"
	"github.com/tahles/directory-crawler/internal/platform/postgres"
	"github.com/tahles/directory-crawler/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	pool, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Fatalf("postgres init: %v", err)
	}
	defer pool.Close()

	if err := postgres.Ping(ctx, pool); err != nil {
		log.Fatalf("postgres ping: %v", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("postgres schema: %v", err)
	}
	log.Println("connected to postgres")

	adRepo := repository.NewAdRepository(pool)
	catRepo := repository.NewCategoryRepository(pool)
	changeRepo := repository.NewChangeLogRepository(pool)
	runRepo := repository.NewRunRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	crawlService := crawler.NewService(
		enabledAdapters(cfg.Sources),
		adRepo, catRepo, changeRepo, runRepo, statsRepo, userRepo,
		crawler.Options{
			MaxPages:     cfg.MaxPages,
			PaceMin:      cfg.PaceMin,
			PaceMax:      cfg.PaceMax,
			IdleInterval: cfg.IdleInterval,
			CoolDown:     cfg.CoolDown,
		},
	)

	router := apirouter.NewRouter(adRepo, runRepo, statsRepo, changeRepo, crawlService, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("server listening on :%s", cfg.Port)

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	log.Println("server exited")
}

// enabledAdapters filters the registered source adapters against CRAWL_SOURCES.
// An empty filter enables everything.
func enabledAdapters(sources []string) []crawler.SourceAdapter {
	all := []crawler.SourceAdapter{titti.New(), sexfire.New()}
	if len(sources) == 0 {
		return all
	}
	enabled := make(map[string]bool, len(sources))
	for _, s := range sources {
		enabled[s] = true
	}
	filtered := make([]crawler.SourceAdapter, 0, len(all))
	for _, a := range all {
		if enabled[a.Source()] {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
