package alerts

import (
	"fmt"
	"strings"

	"kimp-trend-bot/internal/strategy"
)

func OrderPlaced(d strategy.Decision, orderID string, simulated bool) string {
	var b strings.Builder
	if simulated {
		b.WriteString("[SIM] ")
	}
	fmt.Fprintf(&b, "%s %s %s %s", d.Strategy, d.Action, formatAmount(d), d.Symbol)
	fmt.Fprintf(&b, "\nreason: %s", d.Reason)
	if d.Rung >= 0 {
		fmt.Fprintf(&b, " (rung %d)", d.Rung)
	}
	writeContext(&b, d)
	if orderID != "" {
		fmt.Fprintf(&b, "\norder: %s", orderID)
	}
	return b.String()
}

func OrderFailed(d strategy.Decision, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s FAILED", d.Strategy, d.Action, formatAmount(d), d.Symbol)
	fmt.Fprintf(&b, "\nreason: %s", d.Reason)
	if err != nil {
		fmt.Fprintf(&b, "\nerror: %v", err)
	}
	return b.String()
}

func StopLoss(d strategy.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "STOP LOSS %s: selling %s %s", d.Strategy, formatAmount(d), d.Symbol)
	if d.HasPnL {
		fmt.Fprintf(&b, "\npnl: %.2f%%", d.PnLPct)
	}
	writeContext(&b, d)
	return b.String()
}

func formatAmount(d strategy.Decision) string {
	if d.Unit == strategy.SettlementCurrency {
		return fmt.Sprintf("%.0f %s", d.Amount, d.Unit)
	}
	return fmt.Sprintf("%.8g", d.Amount)
}

func writeContext(b *strings.Builder, d strategy.Decision) {
	obs := d.Observation
	if obs.HasDomesticPrice {
		fmt.Fprintf(b, "\nprice: %.2f KRW", obs.DomesticPrice)
	}
	if obs.HasPremium {
		fmt.Fprintf(b, "\npremium: %.2f%%", obs.Premium)
	}
	if d.HasEntryDeviation && d.EntryLine > 0 {
		fmt.Fprintf(b, "\nbuy line: %.2f (%.2f%%)", d.EntryLine, d.EntryDeviation)
	}
	if d.HasExitDeviation && d.ExitLine > 0 {
		fmt.Fprintf(b, "\nsell line: %.2f (%.2f%%)", d.ExitLine, d.ExitDeviation)
	}
}
