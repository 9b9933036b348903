package metrics

import (
	"fmt"
	"io"

	"github.com/rustyeddy/ammbt/sim"
)

// Print writes a plain-text summary of one run, in the shape the CLI
// shows after `ammbt run`.
func Print(w io.Writer, label string, run *sim.Result, m Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Strategy:       %s\n", label)
	fmt.Fprintf(w, "Bars:           %d\n", len(run.Equity))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:   %.2f\n", run.InitialEquity)
	fmt.Fprintf(w, "Final Equity:   %.2f\n", run.FinalEquity)
	fmt.Fprintf(w, "Return:         %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(w, "APR:            %.2f%%\n", m.APR*100)
	fmt.Fprintf(w, "Max Drawdown:   %.2f%%\n", m.MDD*100)
	fmt.Fprintf(w, "Sharpe:         %.2f\n", m.Sharpe)
	fmt.Fprintf(w, "Calmar:         %.2f\n", m.Calmar)
	fmt.Fprintf(w, "Volatility:     %.2f%%\n", m.Volatility*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Liquidity Provision")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Rebalances:     %d\n", m.RebalanceCount)
	fmt.Fprintf(w, "Friction Cost:  %.2f\n", m.TotalFrictionCost)
	fmt.Fprintf(w, "Fees (token0):  %.6f\n", run.FeesEarned0)
	fmt.Fprintf(w, "Fees (token1):  %.2f\n", run.FeesEarned1)
	fmt.Fprintf(w, "Imperm. Loss:   %.2f%%\n", m.ImpermanentLoss*100)
	fmt.Fprintf(w, "LVR Estimate:   %.2f%%\n", m.LVREstimate*100)
	if m.ProxyFallbacks > 0 {
		fmt.Fprintf(w, "Proxy Fallback: %d bars\n", m.ProxyFallbacks)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Benchmarks")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "HODL 50/50:     %.2f\n", run.Hodl5050Final)
	fmt.Fprintf(w, "All Token0:     %.2f\n", run.AllToken0Final)
	fmt.Fprintf(w, "All Token1:     %.2f\n", run.AllToken1Final)
	fmt.Fprintln(w)
}
