package internal

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // pure Go sqlite
)

func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=10000",
		"PRAGMA temp_store=memory",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
		"PRAGMA wal_autocheckpoint=1000",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			LogError("Failed to configure database pragma %q: %v", pragma, err)
			return nil, err
		}
	}

	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  filename TEXT NOT NULL,
  stored_path TEXT NOT NULL,
  upload_date INTEGER NOT NULL,
  total_rows INTEGER NOT NULL DEFAULT 0,
  suspicious_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  error TEXT,
  processed_at INTEGER
)`,
		`CREATE TABLE IF NOT EXISTS transactions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  report_id INTEGER NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
  transaction_id TEXT NOT NULL,
  timestamp INTEGER NOT NULL,
  cashier_id TEXT NOT NULL,
  register_id TEXT NOT NULL,
  transaction_type TEXT NOT NULL,
  amount REAL NOT NULL DEFAULT 0,
  pump_number TEXT NOT NULL DEFAULT '',
  raw_data TEXT NOT NULL DEFAULT '',
  video_clip_path TEXT,
  video_processed INTEGER NOT NULL DEFAULT 0,
  video_error TEXT,
  review_status TEXT NOT NULL DEFAULT 'pending',
  review_notes TEXT,
  reviewed_by TEXT
)`,
		`CREATE TABLE IF NOT EXISTS review_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
  old_status TEXT NOT NULL,
  new_status TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  reviewed_by TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_report ON transactions(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_review ON transactions(review_status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_cashier ON transactions(cashier_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
