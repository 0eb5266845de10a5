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

	_ "github.com/farmsmart/farm-smart/docs"
	"github.com/farmsmart/farm-smart/internal/api/handlers"
	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/cache"
	"github.com/farmsmart/farm-smart/internal/config"
	"github.com/farmsmart/farm-smart/internal/health"
	"github.com/farmsmart/farm-smart/internal/metrics"
	repository "github.com/farmsmart/farm-smart/internal/repositories"
	service "github.com/farmsmart/farm-smart/internal/services"
	"github.com/farmsmart/farm-smart/internal/telemetry"
	"github.com/farmsmart/farm-smart/pkg/sendGrid"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//	@title						Farm Smart Market API
//	@version					1.0
//	@description				Catalog, cart and checkout for the farm shop.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Otel, cfg.Env)
	if err != nil {
		slog.Error("❌ Error initializing tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	productCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	defer productCache.Close()

	rateLimiter := repository.NewRateLimitRepo(redisClient, cfg)

	var notifier service.NotificationService
	if cfg.SendGrid.APIKey != "" {
		notifier = service.NewNotificationService(sendGrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName))
	} else {
		slog.Warn("SendGrid API key not set, order confirmations will not be e-mailed")
	}

	// one lock table so cart edits and checkout of the same owner never interleave
	locks := service.NewOwnerLocks()

	productService := service.NewProductService(repos.Product, productCache)
	cartService := service.NewCartService(repos.Cart, productService, locks, cfg.Cart.MergeDuplicates)
	checkoutService := service.NewCheckoutService(repos.Cart, repos.Order, notifier, locks)
	orderService := service.NewOrderService(repos.Order)

	owners := middleware.NewOwnerMiddleware([]byte(cfg.Security.JWTKey), cfg.Session)

	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService, owners)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, rateLimiter)
	orderHandler := handlers.NewOrderHandler(orderService)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.Bool("mergeDuplicates", cfg.Cart.MergeDuplicates))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("POST /api/v1/products", owners.Resolve(owners.RequireUser(productHandler.CreateProduct())))
	routerMux.HandleFunc("GET /api/v1/carts", owners.Resolve(cartHandler.GetCart()))
	routerMux.HandleFunc("DELETE /api/v1/carts", owners.Resolve(cartHandler.Clear()))
	routerMux.HandleFunc("GET /api/v1/carts/items", owners.Resolve(cartHandler.ListItems()))
	routerMux.HandleFunc("POST /api/v1/carts/items", owners.Resolve(cartHandler.AddItem()))
	routerMux.HandleFunc("DELETE /api/v1/carts/items/{productId}", owners.Resolve(cartHandler.RemoveItem()))
	routerMux.HandleFunc("GET /api/v1/carts/total", owners.Resolve(cartHandler.Total()))
	routerMux.HandleFunc("POST /api/v1/session/logout", owners.Resolve(cartHandler.EndSession()))
	routerMux.HandleFunc("GET /api/v1/checkout", owners.Resolve(checkoutHandler.BeginCheckout()))
	routerMux.HandleFunc("POST /api/v1/checkout", owners.Resolve(checkoutHandler.Submit()))
	routerMux.HandleFunc("GET /api/v1/orders", owners.Resolve(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", owners.Resolve(orderHandler.GetOrder()))
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Middleware chaining; metrics sits innermost so r.Pattern is set when it records
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, cfg.Otel.ServiceName)

	// Setup http server
	server := http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go sweepAbandonedCarts(ctx, cartService, cfg.Session)

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}
}

// sweepAbandonedCarts drops anonymous carts whose session has gone idle for
// longer than the cookie lives.
func sweepAbandonedCarts(ctx context.Context, cartService service.CartService, session config.Session) {

	ticker := time.NewTicker(session.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := cartService.PurgeAbandoned(ctx, session.TTL)
			if err != nil {
				slog.Error("Abandoned cart sweep failed", slog.String("error", err.Error()))
				continue
			}
			if purged > 0 {
				slog.Info("Abandoned carts purged", slog.Int64("entries", purged))
			}
		}
	}
}
