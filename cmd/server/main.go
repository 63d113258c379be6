package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/pay2me/storefront/internal/address"
	"github.com/pay2me/storefront/internal/authclient"
	"github.com/pay2me/storefront/internal/authz"
	"github.com/pay2me/storefront/internal/cart"
	"github.com/pay2me/storefront/internal/catalog"
	"github.com/pay2me/storefront/internal/checkout"
	"github.com/pay2me/storefront/internal/config"
	"github.com/pay2me/storefront/internal/contact"
	"github.com/pay2me/storefront/internal/coupon"
	"github.com/pay2me/storefront/internal/db"
	"github.com/pay2me/storefront/internal/events"
	"github.com/pay2me/storefront/internal/httpserver"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/middleware/auth"
	"github.com/pay2me/storefront/internal/middleware/csrf"
	loggingmw "github.com/pay2me/storefront/internal/middleware/logging"
	sessionmw "github.com/pay2me/storefront/internal/middleware/session"
	"github.com/pay2me/storefront/internal/notify"
	"github.com/pay2me/storefront/internal/order"
	"github.com/pay2me/storefront/internal/payment/paypal"
	"github.com/pay2me/storefront/internal/review"
	"github.com/pay2me/storefront/internal/search"
	"github.com/pay2me/storefront/internal/session"
	"github.com/pay2me/storefront/internal/wishlist"
)

func main() {
	config.LoadDotEnv(".env")
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.PayPal.ClientID, "PAYPAL_CLIENT_ID")
	config.MustNonEmpty(cfg.PayPal.ClientSecret, "PAYPAL_CLIENT_SECRET")

	base := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(base)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		base.Error("db_init_error", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		base.Error("db_migrate_error", "error", err)
		os.Exit(1)
	}

	var (
		publisher events.Publisher
		notifier  notify.Dispatcher
		producer  *events.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
		notifier = notify.NewKafkaDispatcher(producer)
	} else {
		base.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty, events and emails are dropped")
	}

	var (
		sessions    session.Store
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		base.Warn("session_store_in_memory", "reason", "REDIS_ADDR is empty")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	index := &search.Index{Name: cfg.ESIndex}
	if cfg.ESURL != "" {
		es, err := search.NewClient(search.ClientConfig{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			base.Warn("search_disabled", "error", err)
		} else {
			index.ES = es
		}
	}

	products := &catalog.GormRepo{DB: gdb}
	catalogSvc := &catalog.CatalogService{Repo: products, Indexer: index, Events: publisher}
	cartSvc := &cart.Service{Store: sessions, Products: products}
	couponSvc := &coupon.Service{Repo: &coupon.GormRepo{DB: gdb}}
	addressSvc := &address.Service{Repo: &address.GormRepo{DB: gdb}}
	orderSvc := &order.Service{
		Repo:        &order.GormRepo{DB: gdb},
		Notifier:    notifier,
		Events:      publisher,
		AdminEmails: cfg.AdminEmails,
	}
	checkoutSvc := &checkout.Service{
		DB:        gdb,
		Cart:      cartSvc,
		Coupons:   couponSvc,
		Addresses: addressSvc,
		Gateway: paypal.NewClient(paypal.Config{
			BaseURL:        cfg.PayPal.BaseURL,
			ClientID:       cfg.PayPal.ClientID,
			ClientSecret:   cfg.PayPal.ClientSecret,
			Currency:       cfg.PayPal.Currency,
			ExecuteTimeout: cfg.PayPal.ExecuteTimeout,
		}),
		Sessions: sessions,
		Events:   publisher,
	}

	wishlistSvc := &wishlist.Service{
		Repo:        &wishlist.GormRepo{DB: gdb},
		Products:    products,
		Notifier:    notifier,
		AdminEmails: cfg.AdminEmails,
	}
	reviewSvc := &review.Service{Repo: &review.GormRepo{DB: gdb}, Products: products}
	contactSvc := &contact.Service{Repo: &contact.GormRepo{DB: gdb}, Notifier: notifier}

	var refresher auth.Refresher
	if cfg.AuthHTTPURL != "" {
		refresher = authclient.NewClient(cfg.AuthHTTPURL)
	}
	secure := strings.HasPrefix(cfg.PublicBaseURL, "https://")

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(base))

	httpserver.Register(e, &httpserver.Deps{
		Catalog:  &httpserver.CatalogHTTP{Svc: catalogSvc, Search: index},
		Cart:     &httpserver.CartHTTP{Svc: cartSvc, Wishlist: wishlistSvc},
		Checkout: &httpserver.CheckoutHTTP{Svc: checkoutSvc, PublicBaseURL: cfg.PublicBaseURL},
		Payment:  &httpserver.PaymentHTTP{Checkout: checkoutSvc, Orders: orderSvc},
		Address:  &httpserver.AddressHTTP{Svc: addressSvc},
		Orders:   &httpserver.OrderHTTP{Svc: orderSvc},
		Coupons:  &httpserver.CouponHTTP{Svc: couponSvc},
		Wishlist: &httpserver.WishlistHTTP{Svc: wishlistSvc},
		Reviews:  &httpserver.ReviewHTTP{Svc: reviewSvc},
		Contact:  &httpserver.ContactHTTP{Svc: contactSvc},
		Auth:     auth.NewAutoRefreshMiddleware(cfg.JWTAccessSecret, refresher, authz.DefaultPolicy()),
		Session:  sessionmw.Middleware(sessionmw.Config{TTL: cfg.SessionTTL, Secure: secure}),
		CSRF: csrf.Middleware(csrf.Config{
			Secure:            secure,
			EnforceSameOrigin: true,
			SkipPaths:         []string{"/payment/webhook"},
		}),
		Ready: func(ctx context.Context) error {
			if err := db.Ping(ctx, gdb); err != nil {
				return fmt.Errorf("db: %w", err)
			}
			if redisClient != nil {
				if err := redisClient.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	})

	runCtx, stopRun := context.WithCancel(context.Background())
	runCtx = logging.IntoContext(runCtx, base)
	go runEvery(runCtx, "daily_report", cfg.ReportEvery, func(ctx context.Context) error {
		r, err := orderSvc.DailyReport(ctx)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("daily_report_sent", "orders", r.Count, "revenue", r.Revenue.StringFixed(2))
		return nil
	})
	go runEvery(runCtx, "weekly_wishlist_report", cfg.WeeklyReportEvery, func(ctx context.Context) error {
		n, err := wishlistSvc.WeeklyReport(ctx)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("weekly_wishlist_report_sent", "items", n)
		return nil
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		base.Info("http_server_starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			base.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	base.Info("shutting_down")
	stopRun()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		base.Error("server_shutdown_error", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			base.Error("db_close_error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			base.Error("redis_close_error", "error", err)
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			base.Error("kafka_close_error", "error", err)
		}
	}
	base.Info("shutdown_complete")
}

// runEvery calls job on every tick until ctx is cancelled. Failures are
// logged and the next tick tries again.
func runEvery(ctx context.Context, name string, every time.Duration, job func(context.Context) error) {
	if every <= 0 {
		return
	}
	l := logging.FromContext(ctx).With("job", name)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := job(ctx); err != nil {
				l.Error("scheduled_job_error", "error", err)
			}
		}
	}
}
