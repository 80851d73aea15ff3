package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"payment-offers-api/internal/models"
)

// DB wraps the database connection and provides methods for data access.
//
// bank_name and payment_instrument are stored as empty strings rather than
// NULLs: SQLite treats NULLs as distinct in unique indexes, which would let
// two provider-agnostic copies of the same offer slip past the dedup key.
// The conversion to and from nil happens at this boundary only.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite supports a single writer; funnel everything through one
	// connection so concurrent upserts queue instead of failing with BUSY
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist.
func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS offers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			offer_id TEXT NOT NULL,
			bank_name TEXT NOT NULL DEFAULT '',
			payment_instrument TEXT NOT NULL DEFAULT '',
			type TEXT,
			value INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL,
			description TEXT,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_offer_key
			ON offers(offer_id, bank_name, payment_instrument)`,
		`CREATE INDEX IF NOT EXISTS idx_bank_name ON offers(bank_name)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_instrument ON offers(payment_instrument)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// InsertOfferIfAbsent inserts an offer record unless one with the same
// (offer_id, bank_name, payment_instrument) key already exists. The insert is
// atomic against the unique index, so concurrent ingestions of the same
// payload cannot create duplicates. Returns true when a new row was written,
// false when the key was already present.
func (db *DB) InsertOfferIfAbsent(ctx context.Context, offer models.Offer) (bool, error) {
	query := `INSERT INTO offers (
		offer_id, bank_name, payment_instrument, type, value, title, description
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(offer_id, bank_name, payment_instrument) DO NOTHING`

	result, err := db.conn.ExecContext(
		ctx,
		query,
		offer.OfferID,
		keyString(offer.BankName),
		keyString(offer.PaymentInstrument),
		nullableString(offer.Type),
		offer.Value,
		offer.Title,
		nullableString(offer.Description),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert offer %s: %w", offer.OfferID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return rows == 1, nil
}

// FindOffers returns all offers matching the given filters, in insertion
// order. A nil filter matches every record; a non-nil filter is an exact
// match on the stored value, so omitting a filter is not the same as
// filtering on absent.
func (db *DB) FindOffers(ctx context.Context, bankName, paymentInstrument *string) ([]models.Offer, error) {
	query := `SELECT offer_id, bank_name, payment_instrument, type, value, title, description
		FROM offers`
	var args []interface{}

	where := ""
	if bankName != nil {
		where = " WHERE bank_name = ?"
		args = append(args, *bankName)
	}
	if paymentInstrument != nil {
		if where == "" {
			where = " WHERE payment_instrument = ?"
		} else {
			where += " AND payment_instrument = ?"
		}
		args = append(args, *paymentInstrument)
	}

	query += where + " ORDER BY id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var offer models.Offer
		var bank, instrument string
		var offerType, description sql.NullString

		err := rows.Scan(
			&offer.OfferID,
			&bank,
			&instrument,
			&offerType,
			&offer.Value,
			&offer.Title,
			&description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}

		offer.BankName = fromKeyString(bank)
		offer.PaymentInstrument = fromKeyString(instrument)
		offer.Type = fromNullString(offerType)
		offer.Description = fromNullString(description)

		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

// CountOffers returns the total number of stored offer records.
func (db *DB) CountOffers(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return count, nil
}

// keyString maps an optional field to its dedup-key representation.
func keyString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fromKeyString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
