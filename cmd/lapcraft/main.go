package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/lapcraft/internal/cache"
	"github.com/Skotchmaster/lapcraft/internal/config"
	"github.com/Skotchmaster/lapcraft/internal/events"
	"github.com/Skotchmaster/lapcraft/internal/httpserver"
	"github.com/Skotchmaster/lapcraft/internal/repo"
	"github.com/Skotchmaster/lapcraft/internal/search"
	"github.com/Skotchmaster/lapcraft/internal/service"
	pkgdb "github.com/Skotchmaster/lapcraft/pkg/db"
	"github.com/Skotchmaster/lapcraft/pkg/logging"
	authmw "github.com/Skotchmaster/lapcraft/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/lapcraft/pkg/middleware/logging"
	"github.com/Skotchmaster/lapcraft/pkg/tokens"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}

	switch {
	case cfg.DBDriver == pkgdb.DriverSQLite || cfg.DBAutoMigrate:
		if err := repo.AutoMigrate(db); err != nil {
			cancel()
			log.Fatalf("auto migrate: %v", err)
		}
	default:
		if err := pkgdb.Migrate(ctx, cfg.DatabaseURL); err != nil {
			cancel()
			log.Fatalf("migrate: %v", err)
		}
		if v, err := pkgdb.MigrationVersion(ctx, cfg.DatabaseURL); err == nil {
			logger.Info("migrations_applied", "version", v)
		}
	}

	r := repo.New(db)
	issuer := tokens.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	categories := &service.CategoryService{Repo: r}
	products := &service.ProductService{Repo: r}
	cart := &service.CartService{Repo: r}
	favorites := &service.FavoriteService{Repo: r}
	auth := &service.AuthService{Repo: r, Tokens: issuer, RefreshTTL: cfg.RefreshTokenTTL}

	var producer *events.Producer
	if cfg.EventsEnabled() {
		producer, err = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		if err != nil {
			cancel()
			log.Fatalf("kafka producer: %v", err)
		}
		categories.Events = producer
		products.Events = producer
		cart.Events = producer
		favorites.Events = producer
		auth.Events = producer
		logger.Info("events_enabled", "brokers", cfg.KafkaBrokers)
	}

	if cfg.SearchEnabled() {
		idx, err := search.NewClient(ctx, cfg.Search)
		if err == nil {
			err = idx.EnsureIndex(ctx)
		}
		if err != nil {
			logger.Warn("search_unavailable", "url", cfg.Search.URL, "error", err)
		} else {
			products.Index = idx
			logger.Info("search_enabled", "index", cfg.Search.Index)
		}
	}

	var redisClose func() error
	if cfg.CacheEnabled() {
		client, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("cache_unavailable", "addr", cfg.Redis.Addr, "error", err)
		} else {
			tree := cache.NewTreeCache(client, cfg.CacheTTL, cfg.ServiceName+":")
			categories.Cache = tree
			products.Cache = tree
			redisClose = client.Close
			logger.Info("cache_enabled", "addr", cfg.Redis.Addr)
		}
	}
	cancel()

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		DB:         db,
		Auth:       authmw.NewBearerMiddleware(issuer, auth.LoadPrincipal),
		Categories: &httpserver.CategoryHTTP{Svc: categories},
		Products:   &httpserver.ProductHTTP{Svc: products},
		Cart:       &httpserver.CartHTTP{Svc: cart},
		Favorites:  &httpserver.FavoriteHTTP{Svc: favorites},
		AuthHTTP:   &httpserver.AuthHTTP{Svc: auth},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if redisClose != nil {
		_ = redisClose()
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("stopped")
}
