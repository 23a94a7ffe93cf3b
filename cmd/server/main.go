package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/neustalgic-grooves/internal/config"
	"github.com/iliyamo/neustalgic-grooves/internal/database"
	"github.com/iliyamo/neustalgic-grooves/internal/handler"
	"github.com/iliyamo/neustalgic-grooves/internal/media"
	"github.com/iliyamo/neustalgic-grooves/internal/payment"
	"github.com/iliyamo/neustalgic-grooves/internal/queue"
	"github.com/iliyamo/neustalgic-grooves/internal/reconcile"
	"github.com/iliyamo/neustalgic-grooves/internal/repository"
	"github.com/iliyamo/neustalgic-grooves/internal/router"
	"github.com/iliyamo/neustalgic-grooves/internal/service"
	"github.com/iliyamo/neustalgic-grooves/internal/store"
	"github.com/iliyamo/neustalgic-grooves/internal/store/memory"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: could not load .env: %v", err)
	}
	cfg := config.Load()

	// Money is rendered as JSON numbers, e.g. "amount": 50.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	storage := openMedia(ctx, cfg.Media)
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Printf("redis: unavailable at %s; rate limiting and caching disabled", cfg.Redis.Address())
	}

	var opts []reconcile.Option
	if cfg.Queue.Enabled {
		opts = append(opts, reconcile.WithNotifier(service.NewPublisher(cfg.Queue.URL)))
		go func() {
			if err := queue.StartPaymentConsumer(ctx, cfg.Queue.URL, cfg.Queue.LogPath); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("payment-consumer: stopped: %v", err)
			}
		}()
	}
	rec := reconcile.New(st.Ledger, opts...)

	h := router.Handlers{
		Students:     handler.NewStudentHandler(st.Students),
		Scholarships: handler.NewScholarshipHandler(st.Scholarships),
		Contacts:     handler.NewContactHandler(st.Contacts),
		Gallery:      handler.NewGalleryHandler(st.Gallery, storage, cfg.Media.MaxBytes),
		Dashboard:    handler.NewDashboardHandler(st.Dashboard),
		Payments: handler.NewPaymentHandler(
			payment.NewVerifier(cfg.Stripe.WebhookSecret),
			rec,
			payment.NewIntents(cfg.Stripe.SecretKey, cfg.Stripe.Currency),
			cfg.Stripe.PublishableKey,
		),
	}
	e := router.New(cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s, media=%s)", addr, cfg.Env, cfg.StoreDriver, cfg.Media.Driver)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Printf("store: using in-memory store; data is lost on restart")
		return memory.New().Bundle(), func() {}
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("db: migrate: %v", err)
	}
	return repository.NewStore(db), func() { _ = db.Close() }
}

func openMedia(ctx context.Context, cfg config.MediaConfig) media.Storage {
	if cfg.Driver == config.MediaS3 {
		s, err := media.NewS3Storage(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			log.Fatalf("media: %v", err)
		}
		return s
	}
	d, err := media.NewDiskStorage(cfg.UploadDir)
	if err != nil {
		log.Fatalf("media: %v", err)
	}
	return d
}
