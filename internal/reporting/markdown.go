package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a run summary as Markdown string.
func RenderMarkdown(s *Summary) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", s.RunID))
	sb.WriteString(fmt.Sprintf("Strategy: %s | Pool: %s\n\n", s.Strategy, s.Pool))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Events Replayed | %d |\n", s.Snapshots))
	sb.WriteString(fmt.Sprintf("| Rebalance Actions | %d |\n", s.Rebalances))
	sb.WriteString(fmt.Sprintf("| Days Covered | %.2f |\n", s.Days))
	sb.WriteString(fmt.Sprintf("| Final Price | %.8f |\n", s.Final.Price))
	sb.WriteString("\n")

	// Portfolio Value
	sb.WriteString("## Portfolio Value\n\n")
	sb.WriteString("| Metric | In X | In Y |\n")
	sb.WriteString("|--------|------|------|\n")
	sb.WriteString(fmt.Sprintf("| Total Value | %.8f | %.8f |\n", s.Final.TotalValueToX, s.Final.TotalValueToY))
	sb.WriteString(fmt.Sprintf("| Hold Benchmark | %.8f | %.8f |\n", s.Final.HoldToX, s.Final.HoldToY))
	sb.WriteString(fmt.Sprintf("| Uncollected Fees | %.8f | %.8f |\n", s.Final.TotalFeesToX, s.Final.TotalFeesToY))
	sb.WriteString(fmt.Sprintf("| Impermanent Loss | %.8f | %.8f |\n", s.Final.TotalILToX, s.Final.TotalILToY))
	sb.WriteString("\n")

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Portfolio APY (X) | %.4f%% |\n", s.Final.PortfolioAPYX))
	sb.WriteString(fmt.Sprintf("| Portfolio APY (Y) | %.4f%% |\n", s.Final.PortfolioAPYY))
	sb.WriteString(fmt.Sprintf("| Hold APY (X) | %.4f%% |\n", s.Final.HoldAPYX))
	sb.WriteString(fmt.Sprintf("| Hold APY (Y) | %.4f%% |\n", s.Final.HoldAPYY))
	sb.WriteString(fmt.Sprintf("| gAPY | %.4f%% |\n", s.Final.GAPY))
	sb.WriteString("\n")

	return sb.String()
}
