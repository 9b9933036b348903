// Package journal persists run results: one row of summary metrics per
// run, plus the full equity curve and rebalance log keyed by run ID.
package journal

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rustyeddy/ammbt/metrics"
	"github.com/rustyeddy/ammbt/portfolio"
	"github.com/rustyeddy/ammbt/sim"
)

// Run mirrors the runs table: identity, dataset, strategy parameters and
// the summary statistics of one finished backtest.
type Run struct {
	RunID    string
	Created  time.Time
	Strategy string
	Dataset  string
	Interval string
	Config   []byte // serialized run configuration

	Start time.Time
	End   time.Time

	InitialEquity float64
	FinalEquity   float64
	Summary       metrics.Result
}

// Journal is anything that can persist a complete run.
type Journal interface {
	RecordRun(Run) error
	RecordEquity(runID string, pts []portfolio.EquityPoint) error
	RecordRebalances(runID string, evs []sim.RebalanceEvent) error
	Close() error
}

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	// Seed from crypto/rand; ulid.Monotonic keeps IDs generated within
	// the same millisecond lexicographically increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewRunID returns a time-sortable ULID string. Sorting run IDs sorts
// runs by creation time, which keeps SQLite indexes and directory
// listings in chronological order for free.
func NewRunID() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// NewRun assembles a Run row from a finished simulation.
func NewRun(strategy, dataset, interval string, config []byte, res *sim.Result, m metrics.Result) Run {
	r := Run{
		RunID:         NewRunID(),
		Created:       time.Now().UTC(),
		Strategy:      strategy,
		Dataset:       dataset,
		Interval:      interval,
		Config:        config,
		InitialEquity: res.InitialEquity,
		FinalEquity:   res.FinalEquity,
		Summary:       m,
	}
	if n := len(res.Equity); n > 0 {
		r.Start = res.Equity[0].Time
		r.End = res.Equity[n-1].Time
	}
	return r
}

// Record writes the whole run through any Journal implementation.
func Record(j Journal, run Run, res *sim.Result) error {
	if err := j.RecordRun(run); err != nil {
		return err
	}
	if err := j.RecordEquity(run.RunID, res.Equity); err != nil {
		return err
	}
	return j.RecordRebalances(run.RunID, res.Events)
}
