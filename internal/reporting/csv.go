package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the per-snapshot statistics series as CSV string.
func RenderCSV(rows []StatsRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("timestamp,price,total_value_x,total_value_y,total_value_to_x,total_value_to_y,")
	sb.WriteString("total_fees_x,total_fees_y,total_fees_to_x,total_fees_to_y,")
	sb.WriteString("total_il_to_x,total_il_to_y,hold_to_x,hold_to_y,")
	sb.WriteString("portfolio_apy_x,portfolio_apy_y,hold_apy_x,hold_apy_y,g_apy\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			r.Timestamp,
			r.Price,
			r.TotalValueX,
			r.TotalValueY,
			r.TotalValueToX,
			r.TotalValueToY,
			r.TotalFeesX,
			r.TotalFeesY,
			r.TotalFeesToX,
			r.TotalFeesToY,
			r.TotalILToX,
			r.TotalILToY,
			r.HoldToX,
			r.HoldToY,
			r.PortfolioAPYX,
			r.PortfolioAPYY,
			r.HoldAPYX,
			r.HoldAPYY,
			r.GAPY,
		))
	}

	return sb.String()
}
