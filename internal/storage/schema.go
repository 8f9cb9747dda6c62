package storage

const schema = `
-- The 'cards' table stores each flashcard's content and its full
-- scheduling state.
CREATE TABLE IF NOT EXISTS cards (
    hash TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL DEFAULT '',
    context TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    due DATETIME NOT NULL,
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    elapsed_days INTEGER NOT NULL DEFAULT 0,
    scheduled_days INTEGER NOT NULL DEFAULT 0,
    reps INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    state INTEGER NOT NULL DEFAULT 0, -- 0: New, 1: Learning, 2: Review, 3: Relearning
    previous_state INTEGER NOT NULL DEFAULT 0,
    last_review DATETIME NOT NULL,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- The 'review_logs' table accumulates the full review history; the cards
-- table only carries scheduling state, never history.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_hash TEXT NOT NULL,
    rating INTEGER NOT NULL,
    elapsed_days INTEGER NOT NULL,
    scheduled_days INTEGER NOT NULL,
    state INTEGER NOT NULL, -- the state the card was reviewed from
    reviewed_at DATETIME NOT NULL,

    FOREIGN KEY(card_hash) REFERENCES cards(hash)
);

CREATE INDEX IF NOT EXISTS idx_review_logs_card_hash ON review_logs(card_hash);
CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(due);

-- The 'sources' table tracks card origins: local directories or git
-- repositories.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);
`
