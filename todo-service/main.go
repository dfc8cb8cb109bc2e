package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/go-todo/internal/cache"
	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/events"
	"github.com/chepyr/go-todo/internal/handlers"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

const version = "1.0.0"

func main() {
	config.LoadDotEnv()
	cfg := validateEnv()

	dbConn := initDB(cfg)
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	handler, closeDeps := initHandlers(cfg, dbConn)
	defer closeDeps()

	server := initServer(cfg, handler)
	startServer(server, handler.WSHub)
}

func validateEnv() *config.ServerConfig {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func initDB(cfg *config.ServerConfig) *sql.DB {
	dbConn, err := db.Connect(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, dbConn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	return dbConn
}

func initHandlers(cfg *config.ServerConfig, dbConn *sql.DB) (*handlers.Handler, func()) {
	hub := handlers.NewWSHub(cfg.CORSOrigin)
	publishers := events.Multi{hub}
	var closers []func()

	var todoCache cache.TodoCache = cache.NopCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		todoCache = cache.NewRedisCache(rdb, 10*time.Minute)
		closers = append(closers, func() { rdb.Close() })
		log.Printf("Caching todo lists in redis at %s", cfg.RedisAddr)
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publishers = append(publishers, producer)
		closers = append(closers, func() { producer.Close() })
		log.Printf("Publishing todo events to kafka topic %s", cfg.KafkaTopic)
	}

	rateLimiter := handlers.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	closers = append(closers, rateLimiter.Stop)

	handler := &handlers.Handler{
		UserRepo:    db.NewUserRepository(dbConn),
		TodoRepo:    db.NewTodoRepository(dbConn),
		Cache:       todoCache,
		Events:      publishers,
		RateLimiter: rateLimiter,
		WSHub:       hub,
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenTTL:    cfg.JWTTTL,
	}
	return handler, func() {
		for _, c := range closers {
			c()
		}
	}
}

func initServer(cfg *config.ServerConfig, handler *handlers.Handler) *http.Server {
	router := handlers.NewRouter(handler, handlers.RouterConfig{
		APIPrefix:   cfg.APIPrefix,
		CORSOrigins: cfg.CORSOrigin,
		Version:     version,
	})
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func startServer(server *http.Server, hub *handlers.WSHub) {
	log.Printf("Starting todo server on %s", server.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	hub.CloseAll()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
