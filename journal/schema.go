package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	dataset TEXT NOT NULL,
	interval TEXT NOT NULL,
	config BLOB,
	start_time DATETIME,
	end_time DATETIME,
	initial_equity REAL NOT NULL,
	final_equity REAL NOT NULL,
	apr REAL NOT NULL,
	mdd REAL NOT NULL,
	sharpe REAL NOT NULL,
	calmar REAL NOT NULL,
	volatility REAL NOT NULL,
	impermanent_loss REAL NOT NULL,
	lvr_estimate REAL NOT NULL,
	rebalance_count INTEGER NOT NULL,
	total_friction_cost REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	equity REAL NOT NULL,
	cash REAL NOT NULL,
	position_value REAL NOT NULL,
	fees REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS rebalances (
	run_id TEXT NOT NULL,
	time INTEGER NOT NULL,
	reason TEXT NOT NULL,
	fired TEXT,
	price REAL NOT NULL,
	cost REAL NOT NULL,
	fee_swept REAL NOT NULL,
	old_ranges TEXT,
	new_ranges TEXT
);

CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, time);
CREATE INDEX IF NOT EXISTS idx_rebalances_run ON rebalances(run_id, time);
`
