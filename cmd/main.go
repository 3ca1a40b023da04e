package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-service/api"
	"content-service/config"
	"content-service/fetcher"
	"content-service/metrics"
	"content-service/ratelimit"
	"content-service/refresh"
	"content-service/service"
	"content-service/store"
	"content-service/worker"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	log.Printf("Starting %s...", cfg.ServiceName())
	metrics.Init(cfg.ServiceName(), "1.0.0", os.Getenv("ENVIRONMENT"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatal("MongoDB ping failed: ", err)
	}
	log.Println("Connected to MongoDB")

	corpus := store.NewMongo(mongoClient.Database(cfg.Database), cfg.Schema, cfg.Collection)

	// Build the refresh pipeline
	limiter := ratelimit.New(cfg.RateLimitDelay)
	source := fetcher.New(cfg)
	refresher := refresh.New(source, limiter, corpus, cfg.Schema)

	// Event transport is optional; the worker degrades to timer and direct
	// triggers when it is unreachable.
	nc := worker.ConnectTransport(cfg)
	w := worker.New(cfg, nc, refresher, corpus)
	if err := w.Start(ctx); err != nil {
		log.Fatal("Failed to start worker: ", err)
	}

	// HTTP boundary
	query := service.NewQuery(corpus, cfg)
	handler := api.NewHandler(cfg, query, refresher, w)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.Router(cfg, handler),
	}

	go func() {
		log.Printf("%s listening on %s", cfg.ServiceName(), srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down %s...", cfg.ServiceName())
	cancel()
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Printf("%s stopped", cfg.ServiceName())
}
