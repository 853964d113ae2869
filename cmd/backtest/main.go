package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/backtest"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/idhash"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/observability"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/reporting"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
	chstore "github.com/mellow-finance/mellow-strategy-sdk/internal/storage/clickhouse"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage/csvfile"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage/migrations"
	pgstore "github.com/mellow-finance/mellow-strategy-sdk/internal/storage/postgres"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/strategy"
)

func main() {
	// Parse flags
	pool := flag.String("pool", "", "Pool identifier, e.g. WBTC_WETH_3000 (required)")
	strategyType := flag.String("strategy", "", "Strategy: hold, passive, follow_address (required)")
	from := flag.Int64("from", 0, "Replay start timestamp (ms), 0 = from the beginning")
	to := flag.Int64("to", 0, "Replay end timestamp (ms), 0 = until the end")

	// Strategy parameters
	initialX := flag.Float64("initial-x", 0, "Initial X token amount")
	initialY := flag.Float64("initial-y", 0, "Initial Y token amount")
	lowerPrice := flag.Float64("lower-price", 0, "Interval lower price (passive)")
	upperPrice := flag.Float64("upper-price", 0, "Interval upper price (passive)")
	feeTier := flag.Int("fee-tier", int(domain.FeeMiddle), "Pool fee tier: 100, 500, 3000, 10000")
	swapFee := flag.Float64("swap-fee", 0.003, "Swap fee fraction charged on rebalancing swaps")
	txCost := flag.Float64("tx-cost", 0, "Transaction cost in Y units per position operation")
	xInterest := flag.Float64("x-interest", 0, "Daily interest rate on idle X")
	yInterest := flag.Float64("y-interest", 0, "Daily interest rate on idle Y")
	owner := flag.String("owner", "", "Address to mirror (follow_address)")

	// Storage
	eventsCSV := flag.String("events-csv", "", "Path to a CSV file with pool events")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for pool events")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for run histories")
	persist := flag.Bool("persist", false, "Persist run histories to ClickHouse")
	migrate := flag.Bool("migrate", false, "Apply ClickHouse migrations before persisting")

	// Output
	outputJSON := flag.Bool("json", false, "Output summary as JSON")
	statsCSV := flag.String("stats-csv", "", "Write the per-snapshot stats series to this CSV file")
	markdown := flag.Bool("markdown", false, "Output summary as Markdown")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *pool == "" {
		logger.Fatal("--pool is required")
	}
	if *strategyType == "" {
		logger.Fatal("--strategy is required")
	}
	if *eventsCSV == "" && *postgresDSN == "" {
		logger.Fatal("one of --events-csv or --postgres-dsn is required")
	}
	if *persist && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required with --persist")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Event source
	var eventStore storage.PoolEventStore
	if *eventsCSV != "" {
		src, err := csvfile.NewEventSource(*eventsCSV)
		if err != nil {
			logger.Fatalf("load events csv: %v", err)
		}
		logger.Printf("Loaded %d events from %s", src.Len(), *eventsCSV)
		eventStore = src
	} else {
		pgPool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pgPool.Close()
		eventStore = pgstore.NewPoolEventStore(pgPool)
	}

	// Strategy
	strat, err := strategy.FromConfig(strategy.Config{
		Type:       *strategyType,
		InitialX:   *initialX,
		InitialY:   *initialY,
		XInterest:  *xInterest,
		YInterest:  *yInterest,
		LowerPrice: *lowerPrice,
		UpperPrice: *upperPrice,
		FeeTier:    domain.Fee(*feeTier),
		SwapFee:    *swapFee,
		TxCost:     *txCost,
		Owner:      *owner,
	})
	if err != nil {
		logger.Fatalf("build strategy: %v", err)
	}

	runID := idhash.ComputeRunID(strat.Name(), *pool, *from, *to)
	logger.Printf("Running backtest: run=%s pool=%s strategy=%s", runID, *pool, strat.Name())

	// Replay
	engine := backtest.NewEngine(strat, portfolio.New())
	runner := backtest.NewRunner(eventStore)

	started := time.Now()
	if *from == 0 && *to == 0 {
		err = runner.RunAll(ctx, *pool, engine)
	} else {
		end := *to
		if end == 0 {
			end = time.Now().UnixMilli()
		}
		err = runner.Run(ctx, *pool, *from, end, engine)
	}
	elapsed := time.Since(started)

	if err != nil {
		observability.RecordBacktestRun(strat.Name(), "error", elapsed.Seconds())
		logger.Fatalf("backtest failed: %v", err)
	}
	observability.RecordBacktestRun(strat.Name(), "ok", elapsed.Seconds())
	observability.RecordEventsReplayed(engine.EventCount())
	logger.Printf("Replayed %d events in %v", engine.EventCount(), elapsed)

	snapshots := engine.PortfolioHistory().Snapshots()
	rebalances := engine.RebalanceHistory().Records()

	// Persist histories
	if *persist {
		var conn *chstore.Conn
		if *migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatalf("apply clickhouse migrations: %v", err)
			}
		} else {
			conn, err = chstore.NewConn(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatalf("connect to clickhouse: %v", err)
			}
		}
		defer conn.Close()

		err = backtest.SaveHistories(ctx, runID, engine, backtest.HistoryStores{
			Portfolio: chstore.NewPortfolioHistoryStore(conn),
			Rebalance: chstore.NewRebalanceHistoryStore(conn),
			Interval:  chstore.NewIntervalHistoryStore(conn),
		})
		if err != nil {
			logger.Fatalf("persist histories: %v", err)
		}
		observability.RecordSnapshotsPersisted(len(snapshots))
		logger.Printf("Persisted %d snapshots, %d rebalances", len(snapshots), len(rebalances))
	}

	// Stats and summary
	summary, err := reporting.BuildSummary(runID, strat.Name(), *pool, snapshots, rebalances)
	if err != nil {
		logger.Fatalf("build summary: %v", err)
	}

	if *statsCSV != "" {
		rows, err := reporting.BuildStats(snapshots)
		if err != nil {
			logger.Fatalf("build stats: %v", err)
		}
		if err := os.WriteFile(*statsCSV, []byte(reporting.RenderCSV(rows)), 0o644); err != nil {
			logger.Fatalf("write stats csv: %v", err)
		}
		logger.Printf("Wrote %d stats rows to %s", len(rows), *statsCSV)
	}

	switch {
	case *outputJSON:
		output, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(output))
	case *markdown:
		fmt.Print(reporting.RenderMarkdown(summary))
	default:
		printSummary(summary)
	}
}

// printSummary outputs a human-readable run summary.
func printSummary(s *reporting.Summary) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:             %s\n", s.RunID)
	fmt.Printf("Pool:               %s\n", s.Pool)
	fmt.Printf("Strategy:           %s\n", s.Strategy)
	fmt.Printf("Snapshots:          %d\n", s.Snapshots)
	fmt.Printf("Rebalances:         %d\n", s.Rebalances)
	fmt.Printf("Days:               %.2f\n", s.Days)
	fmt.Println()

	fmt.Println("Final state:")
	fmt.Printf("  Price:            %.6f\n", s.Final.Price)
	fmt.Printf("  Value (X):        %.6f\n", s.Final.TotalValueToX)
	fmt.Printf("  Value (Y):        %.6f\n", s.Final.TotalValueToY)
	fmt.Printf("  Hold (X):         %.6f\n", s.Final.HoldToX)
	fmt.Printf("  Hold (Y):         %.6f\n", s.Final.HoldToY)
	fmt.Printf("  Fees (X):         %.6f\n", s.Final.TotalFeesToX)
	fmt.Printf("  Fees (Y):         %.6f\n", s.Final.TotalFeesToY)
	fmt.Printf("  IL (Y):           %.6f\n", s.Final.TotalILToY)
	fmt.Println()

	fmt.Println("Performance:")
	fmt.Printf("  APY (X):          %.2f%%\n", s.Final.PortfolioAPYX)
	fmt.Printf("  APY (Y):          %.2f%%\n", s.Final.PortfolioAPYY)
	fmt.Printf("  Hold APY (X):     %.2f%%\n", s.Final.HoldAPYX)
	fmt.Printf("  Hold APY (Y):     %.2f%%\n", s.Final.HoldAPYY)
	fmt.Printf("  gAPY:             %.2f%%\n", s.Final.GAPY)
}
