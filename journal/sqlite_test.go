package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ammbt/metrics"
	"github.com/rustyeddy/ammbt/portfolio"
	"github.com/rustyeddy/ammbt/sim"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func sampleRun() Run {
	return Run{
		RunID:         NewRunID(),
		Created:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Strategy:      "bollinger",
		Dataset:       "ethusdc_1h.csv",
		Interval:      "1h",
		Config:        []byte(`{"lookback":20,"k":2}`),
		Start:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		InitialEquity: 10000,
		FinalEquity:   10750,
		Summary: metrics.Result{
			APR:            0.52,
			MDD:            0.08,
			Sharpe:         1.4,
			RebalanceCount: 17,
		},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','equity','rebalances')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["equity"])
	assert.True(t, found["rebalances"])
}

func TestSQLiteRoundTripRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	run := sampleRun()
	require.NoError(t, j.RecordRun(run))

	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.Strategy, got.Strategy)
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, run.Summary.APR, got.Summary.APR)
	assert.Equal(t, run.Summary.RebalanceCount, got.Summary.RebalanceCount)
	assert.True(t, run.Start.Equal(got.Start))
}

func TestSQLiteRecordsEquityAndRebalances(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	run := sampleRun()
	pts := []portfolio.EquityPoint{
		{Time: run.Start, Equity: 10000, Cash: 500, PositionValue: 9500},
		{Time: run.Start.Add(time.Hour), Equity: 10100, Cash: 500, PositionValue: 9590, Fees: 10},
	}
	evs := []sim.RebalanceEvent{
		{
			Time:   run.Start.Unix(),
			Reason: "initial",
			Price:  2000,
			New:    []sim.Band{{Lower: 1800, Upper: 2200, Liquidity: 123.4}},
		},
		{
			Time:     run.Start.Add(6 * time.Hour).Unix(),
			Reason:   "percent_drift",
			Fired:    []string{"percent_drift", "time_elapsed"},
			Price:    2100,
			Cost:     12.5,
			FeeSwept: 3.25,
			New:      []sim.Band{{Lower: 1900, Upper: 2300, Liquidity: 118.8}},
		},
	}

	require.NoError(t, Record(j, run, &sim.Result{Equity: pts, Events: evs}))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM equity WHERE run_id = ?`, run.RunID).Scan(&n))
	assert.Equal(t, 2, n)

	var reason, fired string
	var cost float64
	require.NoError(t, db.QueryRow(
		`SELECT reason, fired, cost FROM rebalances WHERE run_id = ? ORDER BY time DESC LIMIT 1`,
		run.RunID).Scan(&reason, &fired, &cost))
	assert.Equal(t, "percent_drift", reason)
	assert.Equal(t, "percent_drift,time_elapsed", fired)
	assert.Equal(t, 12.5, cost)
}

func TestRunIDsSortByTime(t *testing.T) {
	t.Parallel()

	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestOrgReport(t *testing.T) {
	t.Parallel()

	out, err := sampleRun().Org()
	require.NoError(t, err)
	assert.Contains(t, out, "* BACKTEST: bollinger 1h")
	assert.Contains(t, out, ":SHARPE:      1.40")
	assert.Contains(t, out, "| Rebalances       | 17 |")
}
