package journal

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/ammbt/portfolio"
	"github.com/rustyeddy/ammbt/sim"
)

// CSVJournal writes runs.csv, equity.csv and rebalances.csv into one
// directory. Rows append across runs; the run_id column ties them back
// together.
type CSVJournal struct {
	runs, equity, rebal *csv.Writer
	rf, ef, bf          *os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	open := func(name string, header []string) (*os.File, *csv.Writer, error) {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		fresh := err != nil || info.Size() == 0
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w := csv.NewWriter(f)
		if fresh {
			if err := w.Write(header); err != nil {
				f.Close()
				return nil, nil, err
			}
			w.Flush()
			if err := w.Error(); err != nil {
				f.Close()
				return nil, nil, err
			}
		}
		return f, w, nil
	}

	rf, rw, err := open("runs.csv", []string{
		"run_id", "created", "strategy", "dataset", "interval",
		"start", "end", "initial_equity", "final_equity",
		"apr", "mdd", "sharpe", "calmar", "volatility",
		"impermanent_loss", "lvr_estimate", "rebalance_count", "total_friction_cost",
	})
	if err != nil {
		return nil, err
	}
	ef, ew, err := open("equity.csv", []string{
		"run_id", "time", "equity", "cash", "position_value", "fees",
	})
	if err != nil {
		rf.Close()
		return nil, err
	}
	bf, bw, err := open("rebalances.csv", []string{
		"run_id", "time", "reason", "fired", "price", "cost", "fee_swept", "new_ranges",
	})
	if err != nil {
		rf.Close()
		ef.Close()
		return nil, err
	}
	return &CSVJournal{runs: rw, equity: ew, rebal: bw, rf: rf, ef: ef, bf: bf}, nil
}

func (j *CSVJournal) RecordRun(r Run) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Strategy,
		r.Dataset,
		r.Interval,
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		f(r.InitialEquity),
		f(r.FinalEquity),
		f(r.Summary.APR),
		f(r.Summary.MDD),
		f(r.Summary.Sharpe),
		f(r.Summary.Calmar),
		f(r.Summary.Volatility),
		f(r.Summary.ImpermanentLoss),
		f(r.Summary.LVREstimate),
		strconv.Itoa(r.Summary.RebalanceCount),
		f(r.Summary.TotalFrictionCost),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) RecordEquity(runID string, pts []portfolio.EquityPoint) error {
	for _, p := range pts {
		err := j.equity.Write([]string{
			runID,
			p.Time.Format(time.RFC3339),
			f(p.Equity),
			f(p.Cash),
			f(p.PositionValue),
			f(p.Fees),
		})
		if err != nil {
			return err
		}
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) RecordRebalances(runID string, evs []sim.RebalanceEvent) error {
	for _, ev := range evs {
		ranges, err := json.Marshal(ev.New)
		if err != nil {
			return err
		}
		err = j.rebal.Write([]string{
			runID,
			strconv.FormatInt(ev.Time, 10),
			ev.Reason,
			strings.Join(ev.Fired, ","),
			f(ev.Price),
			f(ev.Cost),
			f(ev.FeeSwept),
			string(ranges),
		})
		if err != nil {
			return err
		}
	}
	j.rebal.Flush()
	return j.rebal.Error()
}

func (j *CSVJournal) Close() error {
	for _, w := range []*csv.Writer{j.runs, j.equity, j.rebal} {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	for _, fh := range []*os.File{j.rf, j.ef, j.bf} {
		if err := fh.Close(); err != nil {
			return err
		}
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
