package store

// Amounts are stored as decimal TEXT so no precision is lost; dates as
// YYYY-MM-DD and timestamps as RFC 3339 UTC.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS categories (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL UNIQUE COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS obligations (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    frequency            TEXT NOT NULL,
    next_due_date        TEXT NOT NULL,
    category_id          TEXT REFERENCES categories(id) ON DELETE SET NULL,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
    id                   TEXT PRIMARY KEY,
    obligation_id        TEXT NOT NULL REFERENCES obligations(id) ON DELETE CASCADE,
    amount               TEXT NOT NULL,
    due_date             TEXT NOT NULL,
    paid_at              TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS goals (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    target_amount        TEXT NOT NULL,
    current_amount       TEXT NOT NULL,
    monthly_allocation   TEXT,
    target_date          TEXT,
    is_completed         INTEGER NOT NULL DEFAULT 0,
    completed_at         TEXT,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contributions (
    id                   TEXT PRIMARY KEY,
    goal_id              TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
    amount               TEXT NOT NULL,
    note                 TEXT,
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_obligations_due ON obligations(next_due_date);
CREATE INDEX IF NOT EXISTS idx_payments_obligation ON payments(obligation_id);
CREATE INDEX IF NOT EXISTS idx_contributions_goal ON contributions(goal_id);
`
