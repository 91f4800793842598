package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"go-sklad/internal/ai"
	"go-sklad/internal/auth"
	"go-sklad/internal/cart"
	"go-sklad/internal/checks"
	"go-sklad/internal/config"
	"go-sklad/internal/database"
	"go-sklad/internal/docstore"
	"go-sklad/internal/handlers"
	"go-sklad/internal/inventory"
)

const changesChannel = "sklad:changes"

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)
	for _, w := range cfg.Warnings {
		log.WithField("module", "config").Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open document store")
	}

	engine := inventory.NewEngine(store, log, inventory.WithUnknownSupplier(cfg.UnknownSupplier))
	h := handlers.New(handlers.Deps{
		Engine: engine,
		Checks: checks.NewAggregator(store, log, cfg.UnknownSupplier),
		Carts: cart.NewRegistry(
			cart.WithCapPolicy(cart.ParseCapPolicy(cfg.CartCapPolicy)),
			cart.WithUnknownSupplier(cfg.UnknownSupplier),
		),
		Users:             auth.NewUsers(store),
		Issuer:            auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Agent:             ai.NewAgent(cfg.GeminiAPIKey, engine, log),
		Log:               log,
		AllowRegistration: cfg.AllowRegistration,
	})

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	h.Routes(r)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Infof("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown")
	}
}

// openStore picks the document store: MySQL through gorm when DB_DSN is set,
// otherwise an in-memory store for local runs. REDIS_ADDR fans changes out
// to the other server processes sharing the database.
func openStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (docstore.Gateway, error) {
	if cfg.DatabaseDSN == "" {
		log.Warn("DB_DSN is empty, using the in-memory document store")
		return docstore.NewMemoryStore(), nil
	}
	db, err := database.Connect(cfg.DatabaseDSN, cfg.DatabaseLogLevel, log)
	if err != nil {
		return nil, err
	}

	var notifier docstore.Notifier
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		notifier = docstore.NewRedisNotifier(client, changesChannel)
		log.WithField("addr", cfg.RedisAddr).Info("Change notifications via redis")
	}

	store := docstore.NewGormStore(db, notifier, log)
	go func() {
		if err := store.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Change relay stopped")
		}
	}()
	return store, nil
}
