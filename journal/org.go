package journal

import (
	"bytes"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"pct": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

// Org renders the run as an Org-mode heading, for pasting into a
// research notebook.
func (r Run) Org() (string, error) {
	t, err := template.New("run").Funcs(orgFuncs).Parse(runOrgTemplate)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const runOrgTemplate = `
* BACKTEST: {{.Strategy}} {{if .Interval}}{{.Interval}}{{else}}(interval?){{end}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_EQ:    {{printf "%.2f" .InitialEquity}}
:FINAL_EQ:    {{printf "%.2f" .FinalEquity}}
:APR:         {{printf "%.2f" (pct .Summary.APR)}}
:MAX_DD:      {{printf "%.2f" (pct .Summary.MDD)}}
:SHARPE:      {{printf "%.2f" .Summary.Sharpe}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Return:           *{{printf "%.2f" (pct .Summary.TotalReturn)}}%*
- APR:              *{{printf "%.2f" (pct .Summary.APR)}}%*
- Max Drawdown:     *{{printf "%.2f" (pct .Summary.MDD)}}%*
- Sharpe:           *{{printf "%.2f" .Summary.Sharpe}}*
- Calmar:           *{{printf "%.2f" .Summary.Calmar}}*
- Volatility:       *{{printf "%.2f" (pct .Summary.Volatility)}}%*

** Liquidity Provision
| Metric           | Value |
|------------------+-------|
| Rebalances       | {{.Summary.RebalanceCount}} |
| Friction Cost    | {{printf "%.2f" .Summary.TotalFrictionCost}} |
| Impermanent Loss | {{printf "%.2f" (pct .Summary.ImpermanentLoss)}}% |
| LVR Estimate     | {{printf "%.2f" (pct .Summary.LVREstimate)}}% |
`
