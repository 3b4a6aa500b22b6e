// Command crawl runs crawl cycles from the terminal, without the API server.
// By default it performs a single cycle and exits; -forever keeps the
// supervised loop running until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tahles/directory-crawler/internal/business/crawler"
	"github.com/tahles/directory-crawler/internal/business/crawler/adapters/sexfire"
	"github.com/tahles/directory-crawler/internal/business/crawler/adapters/titti"
	"github.com/tahles/directory-crawler/internal/platform/config"
	"github.com/tahles/directory-crawler/internal/platform/postgres"
	"github.com/tahles/directory-crawler/internal/repository"
)

func main() {
	forever := flag.Bool("forever", false, "keep crawling in a supervised loop")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

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

	adRepo := repository.NewAdRepository(pool)
	catRepo := repository.NewCategoryRepository(pool)
	changeRepo := repository.NewChangeLogRepository(pool)
	runRepo := repository.NewRunRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	svc := crawler.NewService(
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

	if *forever {
		log.Println("starting supervised crawl loop")
		svc.RunForever(ctx)
		log.Println("crawl loop stopped")
		return
	}

	if err := svc.RunFullCrawl(ctx); err != nil {
		log.Fatalf("crawl: %v", err)
	}
	log.Println("crawl finished")
}

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
