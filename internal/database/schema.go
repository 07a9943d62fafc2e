package database

// Schema is the single source of truth for the database layout.
//
// strong_stocks rows are keyed on (scan_time, stock_code) so that re-running a
// scan at the same timestamp upserts instead of duplicating.
// push_records carries a UNIQUE(stock_code, message_type, created_day)
// constraint as a backstop for the once-per-day alert invariant.
const Schema = `
CREATE TABLE IF NOT EXISTS strong_stocks (
    scan_time         TEXT NOT NULL,
    stock_code        TEXT NOT NULL,
    stock_name        TEXT NOT NULL,
    close_price       REAL,
    market_cap        TEXT,
    industry          TEXT,
    list_date         TEXT,
    ma5               REAL,
    ma10              REAL,
    ma20              REAL,
    macd_diff         REAL,
    macd_signal       REAL,
    vol_ratio         REAL,
    return_20d        REAL,
    week52_range      TEXT,
    week52_high       REAL,
    pct_from_high     TEXT,
    week52_low        REAL,
    pct_from_low      TEXT,
    met_conditions    TEXT,
    condition_details TEXT,
    PRIMARY KEY (scan_time, stock_code)
);

CREATE TABLE IF NOT EXISTS recommendations (
    id              TEXT PRIMARY KEY,
    stock_code      TEXT NOT NULL,
    stock_name      TEXT NOT NULL,
    sector          TEXT,
    score           REAL,
    tags            TEXT,
    analysis_text   TEXT,
    buy_min         REAL,
    buy_max         REAL,
    take_profit_min REAL,
    take_profit_max REAL,
    stop_loss_min   REAL,
    stop_loss_max   REAL,
    pushed          INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recommendations_code ON recommendations(stock_code);

CREATE TABLE IF NOT EXISTS push_records (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    stock_code    TEXT NOT NULL,
    stock_name    TEXT NOT NULL,
    sector        TEXT,
    message_type  TEXT NOT NULL,
    content       TEXT NOT NULL,
    current_price REAL,
    trade_range   TEXT,
    created_at    INTEGER NOT NULL,
    created_day   TEXT NOT NULL,
    UNIQUE (stock_code, message_type, created_day)
);

CREATE TABLE IF NOT EXISTS delisted_stocks (
    symbol   TEXT PRIMARY KEY,
    added_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_cache (
    symbol     TEXT NOT NULL,
    trade_date TEXT NOT NULL,
    data       TEXT NOT NULL,
    cached_at  INTEGER NOT NULL,
    PRIMARY KEY (symbol, trade_date)
);
`
