package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/reporting"
	chstore "github.com/mellow-finance/mellow-strategy-sdk/internal/storage/clickhouse"
)

func main() {
	// Parse flags
	runID := flag.String("run-id", "", "Run ID to report on (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required)")
	strategyName := flag.String("strategy", "", "Strategy label for the report header")
	pool := flag.String("pool", "", "Pool label for the report header")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *runID == "" {
		logger.Fatal("--run-id is required")
	}
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	ctx := context.Background()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	portfolioStore := chstore.NewPortfolioHistoryStore(conn)
	rebalanceStore := chstore.NewRebalanceHistoryStore(conn)

	snapshotPtrs, err := portfolioStore.GetByRunID(ctx, *runID)
	if err != nil {
		logger.Fatalf("load portfolio history: %v", err)
	}
	if len(snapshotPtrs) == 0 {
		logger.Fatalf("no snapshots found for run %s", *runID)
	}

	recordPtrs, err := rebalanceStore.GetByRunID(ctx, *runID)
	if err != nil {
		logger.Fatalf("load rebalance history: %v", err)
	}

	snapshots := make([]domain.PortfolioSnapshot, len(snapshotPtrs))
	for i, s := range snapshotPtrs {
		snapshots[i] = *s
	}
	rebalances := make([]domain.RebalanceRecord, len(recordPtrs))
	for i, r := range recordPtrs {
		rebalances[i] = *r
	}

	rows, err := reporting.BuildStats(snapshots)
	if err != nil {
		logger.Fatalf("build stats: %v", err)
	}
	summary, err := reporting.BuildSummary(*runID, *strategyName, *pool, snapshots, rebalances)
	if err != nil {
		logger.Fatalf("build summary: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}

	shortID := *runID
	if len(shortID) > 12 {
		shortID = shortID[:12]
	}
	reportPath := filepath.Join(*outputDir, fmt.Sprintf("REPORT_%s.md", shortID))
	statsPath := filepath.Join(*outputDir, fmt.Sprintf("STATS_%s.csv", shortID))

	if err := os.WriteFile(reportPath, []byte(reporting.RenderMarkdown(summary)), 0o644); err != nil {
		logger.Fatalf("write report: %v", err)
	}
	if err := os.WriteFile(statsPath, []byte(reporting.RenderCSV(rows)), 0o644); err != nil {
		logger.Fatalf("write stats: %v", err)
	}

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s\n", reportPath)
	fmt.Printf("  - %s\n", statsPath)
}
