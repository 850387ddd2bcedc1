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

	cartcache "github.com/21521147/book-hunter-project/internal/cart/cache"
	cartrepo "github.com/21521147/book-hunter-project/internal/cart/repository"
	cartservice "github.com/21521147/book-hunter-project/internal/cart/service"
	catalogrepo "github.com/21521147/book-hunter-project/internal/catalog/repository"
	catalogservice "github.com/21521147/book-hunter-project/internal/catalog/service"
	checkoutservice "github.com/21521147/book-hunter-project/internal/checkout/service"
	h "github.com/21521147/book-hunter-project/internal/http"
	idrepo "github.com/21521147/book-hunter-project/internal/identity/repository"
	idservice "github.com/21521147/book-hunter-project/internal/identity/service"
	ordercache "github.com/21521147/book-hunter-project/internal/order/cache"
	orderrepo "github.com/21521147/book-hunter-project/internal/order/repository"
	orderservice "github.com/21521147/book-hunter-project/internal/order/service"
	"github.com/21521147/book-hunter-project/pkg/config"
	"github.com/21521147/book-hunter-project/pkg/logger"
	"github.com/21521147/book-hunter-project/pkg/mongodb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Mongo holds carts and user profiles.
	db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		zlog.Fatal("failed to connect to mongodb", zap.Error(err))
	}

	cartRepository := cartrepo.NewMongoRepository(db)
	// The unique user_id index is what keeps concurrent upserts from
	// creating two cart documents for one user.
	if err := cartRepository.CreateIndexes(ctx); err != nil {
		zlog.Fatal("failed to create cart indexes", zap.Error(err))
	}
	userRepository := idrepo.NewMongoRepository(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	// Catalog lives in an embedded sqlite database seeded by migrations.
	catalogRepository, err := catalogrepo.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		zlog.Fatal("failed to open catalog database", zap.Error(err))
	}
	defer catalogRepository.Close()
	if err := catalogRepository.RunMigrations(cfg.CatalogMigrations); err != nil {
		zlog.Fatal("failed to run catalog migrations", zap.Error(err))
	}

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
	if err := orderRepository.RunMigrations(orderCreds); err != nil {
		zlog.Fatal("failed to run order migrations", zap.Error(err))
	}

	identityService := idservice.NewIdentityService(userRepository)
	catalogService := catalogservice.NewCatalogService(catalogRepository)

	cartService := cartservice.NewCartService(
		cartRepository,
		cartcache.NewRedisCache(redisClient),
		identityService,
		catalogExists{catalogService},
		zlog.Named("cart"),
	)

	orderService := orderservice.NewOrderService(
		orderRepository,
		ordercache.NewRedisCountCache(redisClient),
		zlog.Named("order"),
	)

	checkoutService := checkoutservice.NewCheckoutService(
		cartService,
		checkoutservice.NewBreakerCatalog(catalogService, zlog.Named("breaker")),
		orderRepository,
		identityService,
		zlog.Named("checkout"),
	)

	router := h.NewRouter(
		h.RouterConfig{RequestTimeout: cfg.RequestTimeout},
		h.NewCartHandler(cartService, cfg.RequestTimeout),
		h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		h.NewOrdersHandler(orderService, cfg.RequestTimeout),
		h.NewCatalogHandler(catalogService, cfg.RequestTimeout),
		h.NewProfileHandler(identityService, cfg.RequestTimeout),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}

// catalogExists adapts the catalog service to the cart's book-existence check.
type catalogExists struct {
	catalog *catalogservice.CatalogService
}

func (c catalogExists) Exists(ctx context.Context, bookID int64) (bool, error) {
	_, err := c.catalog.GetBook(ctx, bookID)
	if errors.Is(err, catalogrepo.ErrBookNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
