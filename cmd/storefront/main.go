package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_grocery/internal/cache"
	"github.com/fjod/go_grocery/internal/cart"
	"github.com/fjod/go_grocery/internal/checkout"
	"github.com/fjod/go_grocery/internal/config"
	"github.com/fjod/go_grocery/internal/consumer"
	"github.com/fjod/go_grocery/internal/delivery"
	h "github.com/fjod/go_grocery/internal/http"
	"github.com/fjod/go_grocery/internal/importer"
	"github.com/fjod/go_grocery/internal/payment"
	"github.com/fjod/go_grocery/internal/pricing"
	"github.com/fjod/go_grocery/internal/publisher"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/fjod/go_grocery/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	configDir := flag.String("config", "./configs", "directory with base.yaml and profile overlays")
	profile := flag.String("profile", os.Getenv("GROCERY_PROFILE"), "config profile, e.g. dev")
	flag.Parse()

	cfg, err := config.Load(*configDir, *profile)
	if err != nil {
		logger.Base().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.App.Name, cfg.App.LogFile, cfg.App.LogLevel)

	ctx := context.Background()

	// Set up MongoDB connection
	if err := repository.RunMigrations(cfg.Mongo.MigrationsPath, cfg.Mongo.URI, cfg.Mongo.Database); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database, repository.MongoOptions{
		AppName:        cfg.App.Name,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	log.Info("connected to MongoDB", "database", cfg.Mongo.Database)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// caches and the confirmation lock degrade to Mongo only
		log.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
	}

	products := repository.NewProductRepository(mongoDB)
	addresses := repository.NewAddressRepository(mongoDB)
	pincodes := repository.NewPincodeRepository(mongoDB)
	orders := repository.NewOrderRepository(mongoDB)
	carts := repository.NewCartRepository(mongoDB)

	resolver := delivery.NewResolver(cache.NewTierCache(redisClient, pincodes, cfg.Delivery.CacheTTL))
	calculator := pricing.NewCalculator(products, addresses, resolver)

	gateway := payment.NewClient(payment.ClientConfig{
		BaseURL:         cfg.Payment.BaseURL,
		KeyID:           cfg.Payment.KeyID,
		KeySecret:       cfg.Payment.KeySecret,
		Timeout:         cfg.Payment.Timeout,
		BreakerTimeout:  cfg.Payment.BreakerTimeout,
		BreakerFailures: cfg.Payment.BreakerFailures,
	})
	checkoutService := checkout.NewService(
		calculator,
		payment.NewIssuer(gateway),
		payment.NewSignatureVerifier(cfg.Payment.KeySecret),
		orders,
		cache.NewRedisIdempotencyStore(redisClient, cfg.Idempotency.LockTTL, cfg.Idempotency.TTL),
	)
	cartService := cart.NewService(carts, cache.NewRedisCache(redisClient), products)

	deps := h.RouterDeps{
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         orders,
		Delivery:       resolver,
		Importer:       importer.NewPincodeImporter(pincodes),
		Auth:           h.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience),
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}
	if cfg.Payment.Sandbox {
		sandbox := payment.NewSandbox(cfg.Payment.KeyID, cfg.Payment.KeySecret,
			payment.RandomDecider{FailurePercent: cfg.Payment.SandboxFailurePercent})
		deps.Sandbox = sandbox.Routes()
		log.Warn("payment sandbox enabled", "base_url", cfg.Payment.BaseURL)
	}

	poller := publisher.NewOutboxPoller(orders, cfg.Kafka.Topic, cfg.Kafka.Brokers...)
	cleaner := consumer.NewCartCleaner(cartService, cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...)

	bgCtx, stopBackground := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Run(bgCtx)
	}()
	go func() {
		defer wg.Done()
		cleaner.Run(bgCtx)
	}()

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      otelhttp.NewHandler(h.NewRouter(deps), "storefront"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("storefront starting", "addr", cfg.App.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	stopBackground()
	waitOrTimeout(&wg, 5*time.Second)
	if err := poller.Close(); err != nil {
		log.Warn("kafka writer close failed", "error", err)
	}
	cleaner.Close()
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Warn("mongo disconnect failed", "error", err)
	}

	log.Info("server exited")
}

func waitOrTimeout(wg *sync.WaitGroup, d time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
	}
}
