package store

const schema = `
CREATE TABLE IF NOT EXISTS update_checks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    checked_at TIMESTAMP NOT NULL,
    official_count INTEGER NOT NULL,
    aur_count INTEGER NOT NULL,
    total_delta INTEGER NOT NULL,
    aur_error TEXT
);

CREATE TABLE IF NOT EXISTS install_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    packages TEXT NOT NULL,
    aur_packages TEXT NOT NULL,
    snapshot TEXT,
    terminal TEXT,
    outcome TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    occurred_at TIMESTAMP NOT NULL,
    name TEXT NOT NULL,
    action TEXT NOT NULL,
    comment TEXT
);

CREATE INDEX IF NOT EXISTS idx_checks_time ON update_checks(checked_at);
CREATE INDEX IF NOT EXISTS idx_runs_time ON install_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_snapshot_events_name ON snapshot_events(name);
`
