package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/pocketfin/pocketfin/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// dateLayout is fixed-width (zero-padded year and full nanosecond fraction)
// so lexicographic order on the stored text matches chronological order for
// any UTC date in years 0 through 9999.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id             TEXT PRIMARY KEY,
	date_utc       TEXT NOT NULL,
	type           TEXT NOT NULL,
	nature         TEXT NOT NULL,
	interval_unit  TEXT,
	interval_every INTEGER,
	repeats        INTEGER NOT NULL,
	series_id      TEXT,
	tags           TEXT NOT NULL,
	amount         TEXT NOT NULL,
	description    TEXT NOT NULL,
	photo          BLOB,
	latitude       REAL,
	longitude      REAL
);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date_utc);
CREATE INDEX IF NOT EXISTS idx_transactions_series ON transactions(series_id);

CREATE TABLE IF NOT EXISTS budget (
	id     INTEGER PRIMARY KEY CHECK (id = 1),
	amount TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	name   TEXT PRIMARY KEY,
	parent TEXT NOT NULL DEFAULT ''
);`

// SQLiteStore implements Store on a local SQLite database. Dates are keyed by
// a fixed-width UTC text column so range scans and ordering stay exact over
// the whole year domain; amounts are stored as decimal strings to avoid float
// rounding.
type SQLiteStore struct {
	db     *sql.DB
	logger *logrus.Entry
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func OpenSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "open database", Cause: err}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &StorageError{Code: ErrCodeIO, Message: "create schema", Cause: err}
	}
	return &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "store.sqlite"),
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveTransaction(ctx context.Context, t *model.Transaction) error {
	instances := expandSeries(t)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "begin save", Cause: err}
	}
	defer tx.Rollback()

	for _, instance := range instances {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE id = ?`, instance.ID).Scan(&exists)
		if err != nil {
			return &StorageError{Code: ErrCodeIO, Message: "check duplicate", Cause: err}
		}
		if exists > 0 {
			return &StorageError{
				Code:    ErrCodeDuplicateID,
				Message: fmt.Sprintf("transaction %s already exists", instance.ID),
			}
		}
		if err := insertTransaction(ctx, tx, instance); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "commit save", Cause: err}
	}

	s.logger.WithFields(logrus.Fields{
		"id":        t.ID,
		"instances": len(instances),
	}).Debug("transaction saved")
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "encode tags", Cause: err}
	}

	var intervalUnit sql.NullString
	var intervalEvery sql.NullInt64
	if t.Frequency.Interval != nil {
		intervalUnit = sql.NullString{String: string(t.Frequency.Interval.Unit), Valid: true}
		intervalEvery = sql.NullInt64{Int64: int64(t.Frequency.Interval.Every), Valid: true}
	}
	var seriesID sql.NullString
	if t.SeriesID != "" {
		seriesID = sql.NullString{String: t.SeriesID, Valid: true}
	}
	var lat, lon sql.NullFloat64
	if t.Location != nil {
		lat = sql.NullFloat64{Float64: t.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: t.Location.Longitude, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, date_utc, type, nature, interval_unit, interval_every,
			repeats, series_id, tags, amount, description, photo, latitude,
			longitude
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.UTC().Format(dateLayout),
		string(t.Type), string(t.Frequency.Nature), intervalUnit, intervalEvery,
		t.Frequency.Repeats, seriesID, string(tagsJSON), t.Amount.String(),
		t.Description, t.Photo, lat, lon)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "insert transaction", Cause: err}
	}
	return nil
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "encode tags", Cause: err}
	}

	var intervalUnit sql.NullString
	var intervalEvery sql.NullInt64
	if t.Frequency.Interval != nil {
		intervalUnit = sql.NullString{String: string(t.Frequency.Interval.Unit), Valid: true}
		intervalEvery = sql.NullInt64{Int64: int64(t.Frequency.Interval.Every), Valid: true}
	}
	var seriesID sql.NullString
	if t.SeriesID != "" {
		seriesID = sql.NullString{String: t.SeriesID, Valid: true}
	}
	var lat, lon sql.NullFloat64
	if t.Location != nil {
		lat = sql.NullFloat64{Float64: t.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: t.Location.Longitude, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			date_utc = ?, type = ?, nature = ?, interval_unit = ?,
			interval_every = ?, repeats = ?, series_id = ?, tags = ?,
			amount = ?, description = ?, photo = ?, latitude = ?,
			longitude = ?
		WHERE id = ?`,
		t.Date.UTC().Format(dateLayout), string(t.Type),
		string(t.Frequency.Nature), intervalUnit, intervalEvery,
		t.Frequency.Repeats, seriesID, string(tagsJSON), t.Amount.String(),
		t.Description, t.Photo, lat, lon, t.ID)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "update transaction", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &StorageError{Code: ErrCodeNotFound, Message: fmt.Sprintf("transaction %s not found", t.ID)}
	}
	return nil
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, start, end time.Time) ([]*model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date_utc, type, nature, interval_unit, interval_every,
		       repeats, series_id, tags, amount, description, photo, latitude,
		       longitude
		FROM transactions
		WHERE date_utc BETWEEN ? AND ?
		ORDER BY date_utc ASC, id ASC`,
		start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	if err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "query transactions", Cause: err}
	}
	defer rows.Close()

	var result []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "iterate transactions", Cause: err}
	}
	return result, nil
}

func scanTransaction(rows *sql.Rows) (*model.Transaction, error) {
	var (
		t             model.Transaction
		dateText      string
		txType        string
		nature        string
		intervalUnit  sql.NullString
		intervalEvery sql.NullInt64
		seriesID      sql.NullString
		tagsJSON      string
		amount        string
		lat, lon      sql.NullFloat64
	)
	err := rows.Scan(&t.ID, &dateText, &txType, &nature, &intervalUnit,
		&intervalEvery, &t.Frequency.Repeats, &seriesID, &tagsJSON, &amount,
		&t.Description, &t.Photo, &lat, &lon)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "scan transaction", Cause: err}
	}

	t.Date, err = time.Parse(dateLayout, dateText)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "decode date", Cause: err}
	}
	t.Type = model.TransactionType(txType)
	t.Frequency.Nature = model.FrequencyNature(nature)
	if intervalUnit.Valid {
		t.Frequency.Interval = &model.Interval{
			Unit:  model.IntervalUnit(intervalUnit.String),
			Every: int(intervalEvery.Int64),
		}
	}
	if seriesID.Valid {
		t.SeriesID = seriesID.String
	}
	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "decode tags", Cause: err}
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "decode amount", Cause: err}
	}
	if lat.Valid && lon.Valid {
		t.Location = &model.Location{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &t, nil
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "delete transaction", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &StorageError{Code: ErrCodeNotFound, Message: fmt.Sprintf("transaction %s not found", id)}
	}
	return nil
}

func (s *SQLiteStore) DeleteSeries(ctx context.Context, seriesID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "begin series delete", Cause: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE series_id = ?`, seriesID)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "delete series", Cause: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &StorageError{Code: ErrCodeNotFound, Message: fmt.Sprintf("series %s not found", seriesID)}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{
			Code:    ErrCodePartialDelete,
			Message: fmt.Sprintf("series delete of %d instances did not commit; instances may remain", n),
			Cause:   err,
		}
	}

	s.logger.WithFields(logrus.Fields{
		"series":    seriesID,
		"instances": n,
	}).Debug("series deleted")
	return nil
}

func (s *SQLiteStore) CountTransactions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, &StorageError{Code: ErrCodeIO, Message: "count transactions", Cause: err}
	}
	return count, nil
}

func (s *SQLiteStore) ClearTransactions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "clear transactions", Cause: err}
	}
	return nil
}

func (s *SQLiteStore) SaveBudget(ctx context.Context, b *model.Budget) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budget (id, amount) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET amount = excluded.amount`,
		b.Amount.String())
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "save budget", Cause: err}
	}
	return nil
}

func (s *SQLiteStore) LoadBudget(ctx context.Context) (*model.Budget, error) {
	var amount string
	err := s.db.QueryRowContext(ctx, `SELECT amount FROM budget WHERE id = 1`).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBudgetNotConfigured
	}
	if err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "load budget", Cause: err}
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "decode budget amount", Cause: err}
	}
	return &model.Budget{Amount: value}, nil
}

func (s *SQLiteStore) SaveTag(ctx context.Context, tag model.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (name, parent) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET parent = excluded.parent`,
		tag.Name, tag.Parent)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "save tag", Cause: err}
	}
	return nil
}

func (s *SQLiteStore) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, parent FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "query tags", Cause: err}
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.Name, &tag.Parent); err != nil {
			return nil, &StorageError{Code: ErrCodeIO, Message: "scan tag", Cause: err}
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Code: ErrCodeIO, Message: "iterate tags", Cause: err}
	}
	return tags, nil
}

func (s *SQLiteStore) DeleteTag(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "begin tag delete", Cause: err}
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE name = ?`, name).Scan(&exists); err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "check tag", Cause: err}
	}
	if exists == 0 {
		return &StorageError{Code: ErrCodeNotFound, Message: fmt.Sprintf("tag %s not found", name)}
	}

	// The named tag and its children go in one statement so a parent can
	// never be removed while its children linger.
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE name = ? OR parent = ?`, name, name); err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "delete tag", Cause: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Code: ErrCodeIO, Message: "commit tag delete", Cause: err}
	}
	return nil
}
