package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/analytics"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	checkoutadapter "github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout/adapter"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/inventory"
	inventoryadapter "github.com/andreasstove999/ecommerce-system/storefront-go/internal/inventory/adapter"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/shopify"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "storefront-go", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cfg.ShopifyErr(); err != nil {
		if cfg.IsDev() {
			log.Error("shopify is not configured; checkout and availability will fail", "err", err)
		} else {
			log.Warn("shopify is not configured", "err", err)
		}
	}

	// --- Storage ---
	slot, closeSlot, err := openSlot(ctx, cfg, log)
	if err != nil {
		log.Error("storage init failed", "backend", cfg.StorageBackend, "err", err)
		os.Exit(1)
	}
	defer closeSlot()

	// --- AMQP (optional) ---
	var publisher *events.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Error("rabbitmq connect failed", "err", err)
			os.Exit(1)
		}
		defer conn.Close()

		publisher, err = events.NewPublisher(conn, events.PublisherOptions{Logger: log})
		if err != nil {
			log.Error("rabbitmq publisher init failed", "err", err)
			os.Exit(1)
		}
		defer publisher.Close()
	}

	trackerFor := func(sessionID string) analytics.Tracker {
		if publisher != nil {
			return publisher.ForSession(sessionID)
		}
		return analytics.LogTracker{Log: log.With("session_id", sessionID)}
	}

	// --- Shopify ---
	client := shopify.NewClient(shopify.Config{
		StoreDomain: cfg.ShopifyStoreDomain,
		AccessToken: cfg.ShopifyAccessToken,
		APIVersion:  cfg.ShopifyAPIVersion,
		Timeout:     cfg.UpstreamTimeout,
	}, nil)

	cache := inventory.NewCache(inventoryadapter.NewShopifyFetcher(client), inventory.Options{
		TTL:           cfg.AvailabilityTTL,
		MaxConcurrent: cfg.AvailabilityMaxConcurrent,
		Logger:        log,
	})
	unsubscribe := cache.Subscribe(func(s inventory.Snapshot) {
		log.Debug("availability updated", "variants", len(s))
	})
	defer unsubscribe()

	var checkoutTracker analytics.Tracker = analytics.LogTracker{Log: log}
	builderOpts := []checkout.Option{checkout.WithLogger(log)}
	if publisher != nil {
		checkoutTracker = publisher
		builderOpts = append(builderOpts, checkout.WithNotifier(publisher))
	}
	builderOpts = append(builderOpts, checkout.WithTracker(checkoutTracker))
	builder := checkout.NewBuilder(cache, checkoutadapter.NewShopifySubmitter(client), builderOpts...)

	sessions := cart.NewSessions(func(sessionID string) *cart.Store {
		return cart.NewStore(
			cart.NewSlotPersistence(slot, sessionID),
			cart.WithTracker(trackerFor(sessionID)),
			cart.WithLogger(log.With("session_id", sessionID)),
		)
	}, cart.WithIdleTTL(cfg.SessionIdleTTL), cart.WithMaxSessions(cfg.SessionMax))

	go func() {
		ticker := time.NewTicker(cfg.SessionIdleTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Sweep()
			}
		}
	}()

	// --- HTTP ---
	h := httpapi.NewHandler(httpapi.Deps{
		Logger:              log,
		Sessions:            sessions,
		Availability:        cache,
		Checkout:            builder,
		ProductHandle:       cfg.ShopifyProductHandle,
		DefaultVariantID:    cfg.ShopifyDefaultVariantID,
		AvailabilityTimeout: cfg.UpstreamTimeout,
	})
	r := httpapi.NewRouter(h, httpapi.RouterOptions{Logger: log, CORSAllowOrigins: cfg.CORSAllowOrigins})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "storage", cfg.StorageBackend, "events", publisher != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("http server failed", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	log.Info("shutdown complete")
}

// openSlot builds the cart storage backend named in cfg.
func openSlot(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.Slot, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemory(), noop, nil

	case config.StorageFile:
		f, err := storage.NewFile(cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return f, noop, nil

	case config.StoragePostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, log); err != nil {
				return nil, nil, err
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgres(pool), pool.Close, nil

	case config.StorageFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewFirestore(client), func() { _ = client.Close() }, nil

	default:
		return nil, nil, errors.New("unknown STORAGE_BACKEND " + cfg.StorageBackend)
	}
}
