package journal

import (
	"database/sql"
	"encoding/json"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/ammbt/portfolio"
	"github.com/rustyeddy/ammbt/sim"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, dataset, interval, config, start_time, end_time,
		 initial_equity, final_equity, apr, mdd, sharpe, calmar, volatility,
		 impermanent_loss, lvr_estimate, rebalance_count, total_friction_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Dataset, r.Interval, r.Config,
		r.Start, r.End, r.InitialEquity, r.FinalEquity,
		r.Summary.APR, r.Summary.MDD, r.Summary.Sharpe, r.Summary.Calmar,
		r.Summary.Volatility, r.Summary.ImpermanentLoss, r.Summary.LVREstimate,
		r.Summary.RebalanceCount, r.Summary.TotalFrictionCost,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(runID string, pts []portfolio.EquityPoint) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO equity (run_id, time, equity, cash, position_value, fees)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range pts {
		if _, err := stmt.Exec(runID, p.Time, p.Equity, p.Cash, p.PositionValue, p.Fees); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLiteJournal) RecordRebalances(runID string, evs []sim.RebalanceEvent) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO rebalances
		(run_id, time, reason, fired, price, cost, fee_swept, old_ranges, new_ranges)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, ev := range evs {
		oldJSON, err := json.Marshal(ev.Old)
		if err != nil {
			tx.Rollback()
			return err
		}
		newJSON, err := json.Marshal(ev.New)
		if err != nil {
			tx.Rollback()
			return err
		}
		_, err = stmt.Exec(runID, ev.Time, ev.Reason, strings.Join(ev.Fired, ","),
			ev.Price, ev.Cost, ev.FeeSwept, string(oldJSON), string(newJSON))
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListRuns returns run rows newest first.
func (j *SQLiteJournal) ListRuns() ([]Run, error) {
	rows, err := j.db.Query(`
		SELECT run_id, created, strategy, dataset, interval, config,
		       start_time, end_time, initial_equity, final_equity,
		       apr, mdd, sharpe, calmar, volatility,
		       impermanent_loss, lvr_estimate, rebalance_count, total_friction_cost
		FROM runs ORDER BY run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		err := rows.Scan(&r.RunID, &r.Created, &r.Strategy, &r.Dataset, &r.Interval,
			&r.Config, &r.Start, &r.End, &r.InitialEquity, &r.FinalEquity,
			&r.Summary.APR, &r.Summary.MDD, &r.Summary.Sharpe, &r.Summary.Calmar,
			&r.Summary.Volatility, &r.Summary.ImpermanentLoss, &r.Summary.LVREstimate,
			&r.Summary.RebalanceCount, &r.Summary.TotalFrictionCost)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
