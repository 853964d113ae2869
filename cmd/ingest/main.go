package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/ingestion"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/observability"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage/memory"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage/migrations"
	pgstore "github.com/mellow-finance/mellow-strategy-sdk/internal/storage/postgres"
)

func main() {
	// Parse flags
	wsEndpoint := flag.String("ws-endpoint", "", "Pool event feed WebSocket endpoint (required)")
	pools := flag.String("pools", "", "Comma-separated pool identifiers to subscribe (required)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	migrate := flag.Bool("migrate", false, "Apply PostgreSQL migrations on startup")
	blockLag := flag.Int64("block-lag", 5, "Blocks to buffer before writing, for ordering")
	flushInterval := flag.Duration("flush-interval", 5*time.Second, "Periodic buffer flush interval")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	poolList := splitPools(*pools)
	if len(poolList) == 0 {
		logger.Fatal("--pools is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required when not using --use-memory")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Event store
	var eventStore storage.PoolEventStore
	if *useMemory {
		eventStore = memory.NewPoolEventStore()
		logger.Println("Using in-memory event store")
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if *migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatalf("apply migrations: %v", err)
			}
			logger.Println("PostgreSQL migrations applied")
		}

		eventStore = pgstore.NewPoolEventStore(pool)
	}

	// Connect the feed
	logger.Printf("Subscribing to pools: %v", poolList)
	feedConfig := ingestion.DefaultWSFeedConfig()
	feedConfig.Logger = logger
	feed, err := ingestion.NewWSFeed(ctx, *wsEndpoint, poolList, &feedConfig)
	if err != nil {
		logger.Fatalf("connect feed: %v", err)
	}
	defer feed.Close()

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Feed:          feed,
		EventStore:    eventStore,
		BlockLag:      *blockLag,
		FlushInterval: *flushInterval,
		Logger:        logger,
	})

	err = runner.Run(ctx)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// splitPools splits the comma-separated pool list.
func splitPools(pools string) []string {
	var result []string
	for _, p := range strings.Split(pools, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
