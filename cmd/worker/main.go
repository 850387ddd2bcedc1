package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	cartcache "github.com/21521147/book-hunter-project/internal/cart/cache"
	cartrepo "github.com/21521147/book-hunter-project/internal/cart/repository"
	cartservice "github.com/21521147/book-hunter-project/internal/cart/service"
	idrepo "github.com/21521147/book-hunter-project/internal/identity/repository"
	idservice "github.com/21521147/book-hunter-project/internal/identity/service"
	ordercache "github.com/21521147/book-hunter-project/internal/order/cache"
	orderrepo "github.com/21521147/book-hunter-project/internal/order/repository"
	"github.com/21521147/book-hunter-project/internal/outbox/publisher"
	"github.com/21521147/book-hunter-project/internal/reconcile"
	"github.com/21521147/book-hunter-project/pkg/config"
	"github.com/21521147/book-hunter-project/pkg/logger"
	"github.com/21521147/book-hunter-project/pkg/mongodb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// The worker runs the two halves of cart/order reconciliation: the outbox
// poller that pushes order events to Kafka, and the consumer that removes
// purchased items left behind in carts.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connectCancel()

	db, err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		zlog.Fatal("failed to connect to mongodb", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	orderCreds := &orderrepo.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDBName,
		MigrationsDirPath: cfg.OrderMigrations,
	}
	orderRepository, err := orderrepo.NewRepository(orderCreds)
	if err != nil {
		zlog.Fatal("failed to connect to orders database", zap.Error(err))
	}
	defer orderRepository.Close()

	cartRepository := cartrepo.NewMongoRepository(db)
	if err := cartRepository.CreateIndexes(connectCtx); err != nil {
		zlog.Fatal("failed to create cart indexes", zap.Error(err))
	}

	identityService := idservice.NewIdentityService(idrepo.NewMongoRepository(db))
	cartService := cartservice.NewCartService(
		cartRepository,
		cartcache.NewRedisCache(redisClient),
		identityService,
		nil, // reconciliation never adds items, no catalog needed
		zlog.Named("cart"),
	)

	poller := publisher.NewOutboxPoller(orderRepository, zlog.Named("outbox"), cfg.KafkaBrokers...)
	defer poller.Close()

	consumer := reconcile.NewConsumer(
		cartService,
		ordercache.NewRedisCountCache(redisClient),
		zlog.Named("reconcile"),
		cfg.KafkaBrokers...,
	)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		consumer.Run(ctx)
	}()

	zlog.Info("worker started", zap.Strings("brokers", cfg.KafkaBrokers))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down worker")
	cancel()
	wg.Wait()
	zlog.Info("worker exited")
}
