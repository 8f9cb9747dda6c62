package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mnemohq/mnemo/internal/deck"
	"github.com/mnemohq/mnemo/internal/fsrs"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CardRecord is one row of the cards table: content plus the full
// scheduling state.
type CardRecord struct {
	Hash     string
	Question string
	Answer   string
	Context  string
	Tags     []string
	SourceID sql.NullInt64

	Scheduling fsrs.Card
}

const cardColumns = `hash, question, answer, context, tags,
		due, stability, difficulty, elapsed_days, scheduled_days,
		reps, lapses, state, previous_state, last_review, source_id`

func scanCardRecord(row interface{ Scan(...any) error }) (*CardRecord, error) {
	var rec CardRecord
	var tags string
	err := row.Scan(
		&rec.Hash,
		&rec.Question,
		&rec.Answer,
		&rec.Context,
		&tags,
		&rec.Scheduling.Due,
		&rec.Scheduling.Stability,
		&rec.Scheduling.Difficulty,
		&rec.Scheduling.ElapsedDays,
		&rec.Scheduling.ScheduledDays,
		&rec.Scheduling.Reps,
		&rec.Scheduling.Lapses,
		&rec.Scheduling.State,
		&rec.Scheduling.PreviousState,
		&rec.Scheduling.LastReview,
		&rec.SourceID,
	)
	if err != nil {
		return nil, err
	}
	if tags != "" {
		rec.Tags = strings.Split(tags, ",")
	}
	return &rec, nil
}

// InsertCard inserts a new card with the given scheduling state, normally a
// fresh fsrs.NewCard().
func (db *DB) InsertCard(card deck.Card, scheduling fsrs.Card, sourceID int64) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.Hash,
		card.Question,
		card.Answer,
		card.Context,
		strings.Join(card.Tags, ","),
		scheduling.Due,
		scheduling.Stability,
		scheduling.Difficulty,
		scheduling.ElapsedDays,
		scheduling.ScheduledDays,
		scheduling.Reps,
		scheduling.Lapses,
		scheduling.State,
		scheduling.PreviousState,
		scheduling.LastReview,
		sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.Hash, err)
	}
	return nil
}

// FindCardByHash retrieves a card by its hash, with its most recent review
// log attached. Returns (nil, nil) if the card does not exist.
func (db *DB) FindCardByHash(hash string) (*CardRecord, error) {
	row := db.conn.QueryRow(`
		SELECT `+cardColumns+`
		FROM cards WHERE hash = ?
	`, hash)

	rec, err := scanCardRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by hash %s: %w", hash, err)
	}

	log, err := db.latestReviewLog(hash)
	if err != nil {
		return nil, err
	}
	rec.Scheduling.Log = log
	return rec, nil
}

// GetDueCards returns all cards due at or before now, most overdue first.
func (db *DB) GetDueCards(now time.Time) ([]CardRecord, error) {
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`
		FROM cards WHERE due <= ?
		ORDER BY due ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	defer rows.Close()

	return collectCardRecords(rows)
}

// GetCardsBySourceID retrieves all cards associated with a source.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]CardRecord, error) {
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`
		FROM cards WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	return collectCardRecords(rows)
}

func collectCardRecords(rows *sql.Rows) ([]CardRecord, error) {
	var records []CardRecord
	for rows.Next() {
		rec, err := scanCardRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	return records, nil
}

// UpdateCardScheduling writes a card's new scheduling state and, when the
// card carries a log, appends it to the review history. This is the commit
// step after the caller selects one branch of a ScheduledCards.
func (db *DB) UpdateCardScheduling(hash string, scheduling fsrs.Card) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE cards
		SET due = ?, stability = ?, difficulty = ?, elapsed_days = ?,
		    scheduled_days = ?, reps = ?, lapses = ?, state = ?,
		    previous_state = ?, last_review = ?
		WHERE hash = ?
	`,
		scheduling.Due,
		scheduling.Stability,
		scheduling.Difficulty,
		scheduling.ElapsedDays,
		scheduling.ScheduledDays,
		scheduling.Reps,
		scheduling.Lapses,
		scheduling.State,
		scheduling.PreviousState,
		scheduling.LastReview,
		hash,
	)
	if err != nil {
		return fmt.Errorf("failed to update scheduling for card %s: %w", hash, err)
	}

	if scheduling.Log != nil {
		log := scheduling.Log
		_, err = tx.Exec(`
			INSERT INTO review_logs (card_hash, rating, elapsed_days, scheduled_days, state, reviewed_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			hash,
			log.Rating,
			log.ElapsedDays,
			log.ScheduledDays,
			log.State,
			log.ReviewedDate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert review log for card %s: %w", hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review for card %s: %w", hash, err)
	}
	return nil
}

// GetReviewLogs returns a card's full review history, oldest first.
func (db *DB) GetReviewLogs(hash string) ([]fsrs.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT rating, elapsed_days, scheduled_days, state, reviewed_at
		FROM review_logs WHERE card_hash = ?
		ORDER BY reviewed_at ASC, id ASC
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for card %s: %w", hash, err)
	}
	defer rows.Close()

	var logs []fsrs.ReviewLog
	for rows.Next() {
		var log fsrs.ReviewLog
		if err := rows.Scan(&log.Rating, &log.ElapsedDays, &log.ScheduledDays, &log.State, &log.ReviewedDate); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review log rows: %w", err)
	}
	return logs, nil
}

func (db *DB) latestReviewLog(hash string) (*fsrs.ReviewLog, error) {
	var log fsrs.ReviewLog
	row := db.conn.QueryRow(`
		SELECT rating, elapsed_days, scheduled_days, state, reviewed_at
		FROM review_logs WHERE card_hash = ?
		ORDER BY reviewed_at DESC, id DESC
		LIMIT 1
	`, hash)
	err := row.Scan(&log.Rating, &log.ElapsedDays, &log.ScheduledDays, &log.State, &log.ReviewedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest review log for card %s: %w", hash, err)
	}
	return &log, nil
}

// DeleteCardByHash removes a card and its review history.
func (db *DB) DeleteCardByHash(hash string) error {
	if _, err := db.conn.Exec(`DELETE FROM review_logs WHERE card_hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete review logs for card %s: %w", hash, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM cards WHERE hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete card with hash %s: %w", hash, err)
	}
	return nil
}

// Source is a card origin, either a local path or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path. Returns (nil, nil) if
// the source does not exist.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source rows: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a source. Cards that came from it are kept until the
// next sync decides their fate.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned stamps the source's last_scanned timestamp.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
