package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/amishk599/jobstats/internal/model"
)

const (
	createRawAds = `CREATE TABLE IF NOT EXISTS raw_ads (
		id         TEXT PRIMARY KEY,
		fetched_at TEXT NOT NULL,
		payload    TEXT NOT NULL
	)`

	// Null key parts are stored as '' because SQLite treats NULLs in a
	// primary key as distinct, which would defeat the upsert.
	createAggDaily = `CREATE TABLE IF NOT EXISTS agg_daily (
		date             TEXT NOT NULL DEFAULT '',
		county           TEXT NOT NULL DEFAULT '',
		occupation_group TEXT NOT NULL DEFAULT '',
		ad_count         INTEGER NOT NULL CHECK (ad_count >= 0),
		PRIMARY KEY (date, county, occupation_group)
	)`

	upsertRawAd = `INSERT INTO raw_ads (id, fetched_at, payload) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at, payload = excluded.payload`

	upsertAggregate = `INSERT INTO agg_daily (date, county, occupation_group, ad_count) VALUES (?, ?, ?, ?)
		ON CONFLICT(date, county, occupation_group) DO UPDATE SET ad_count = excluded.ad_count`

	selectAggregates = `SELECT date, county, occupation_group, ad_count FROM agg_daily
		ORDER BY date, county, occupation_group`
)

// SQLiteStore persists raw ads and daily aggregates in a single SQLite file.
// Every operation opens its own connection and closes it before returning, so
// no lock is held between pipeline stages.
type SQLiteStore struct {
	path string
	open func() (*sql.DB, error)
	now  func() time.Time
}

// NewSQLiteStore returns a store backed by the database file at dbPath. The
// file and its directory are created on first use.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		path: dbPath,
		open: func() (*sql.DB, error) { return sql.Open("sqlite", dbPath) },
		now:  time.Now,
	}
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// withDB opens a connection, hands it to fn, and closes it afterwards.
func (s *SQLiteStore) withDB(ctx context.Context, op string, fn func(db *sql.DB) error) error {
	db, err := s.open()
	if err != nil {
		return errors.Wrapf(err, "%s: opening sqlite db %s", op, s.path)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "%s: pinging sqlite db %s", op, s.path),
			"check that the database directory exists and is writable",
		)
	}
	return fn(db)
}

// inTx runs fn in a transaction; any error rolls it back and is returned.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	return s.withDB(ctx, op, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrapf(err, "%s: begin", op)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.WithSecondaryError(err, rbErr)
			}
			return errors.Wrap(err, op)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "%s: commit", op)
		}
		return nil
	})
}

// EnsureSchema creates both tables if they do not exist. It is safe to call on
// every start and never drops or alters existing data.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "ensure schema: creating %s", dir)
		}
	}

	return s.inTx(ctx, "ensure schema", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createRawAds); err != nil {
			return errors.Wrap(err, "creating raw_ads table")
		}
		if _, err := tx.ExecContext(ctx, createAggDaily); err != nil {
			return errors.Wrap(err, "creating agg_daily table")
		}
		return nil
	})
}

// WriteRaw upserts each ad by id. The whole batch commits or none of it does.
func (s *SQLiteStore) WriteRaw(ctx context.Context, ads []model.Ad) error {
	if len(ads) == 0 {
		return nil
	}
	fetchedAt := s.now().UTC().Format(time.RFC3339)

	return s.inTx(ctx, "write raw ads", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertRawAd)
		if err != nil {
			return errors.Wrap(err, "preparing raw upsert")
		}
		defer stmt.Close()

		for _, ad := range ads {
			payload, err := json.Marshal(ad)
			if err != nil {
				return errors.Wrapf(err, "encoding ad %s", ad.ID)
			}
			if _, err := stmt.ExecContext(ctx, ad.ID, fetchedAt, string(payload)); err != nil {
				return errors.Wrapf(err, "upserting ad %s", ad.ID)
			}
		}
		return nil
	})
}

// WriteAggregate upserts each row by (date, county, occupation_group),
// replacing any previous count. Rows whose keys coincide once stored (a nil
// part and an empty string both become '') are summed first so no ad is lost.
// The whole batch commits or none of it does.
func (s *SQLiteStore) WriteAggregate(ctx context.Context, rows []model.DailyAggregate) error {
	if len(rows) == 0 {
		return nil
	}

	return s.inTx(ctx, "write aggregates", func(tx *sql.Tx) error {
		merged, err := mergeStoredKeys(rows)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, upsertAggregate)
		if err != nil {
			return errors.Wrap(err, "preparing aggregate upsert")
		}
		defer stmt.Close()

		for _, r := range merged {
			if _, err := stmt.ExecContext(ctx, r.date, r.county, r.occupation, r.count); err != nil {
				return errors.Wrapf(err, "upserting aggregate %s/%s/%s", r.date, r.county, r.occupation)
			}
		}
		return nil
	})
}

// storedAggregate is an aggregate row in its column form.
type storedAggregate struct {
	date, county, occupation string
	count                    int
}

// mergeStoredKeys sums rows that map to the same primary key, keeping
// first-seen order. Negative counts are rejected.
func mergeStoredKeys(rows []model.DailyAggregate) ([]storedAggregate, error) {
	type key struct{ date, county, occupation string }
	index := make(map[key]int, len(rows))
	out := make([]storedAggregate, 0, len(rows))

	for _, r := range rows {
		k := key{model.Deref(r.Date), model.Deref(r.County), model.Deref(r.OccupationGroup)}
		if r.AdCount < 0 {
			return nil, errors.Newf("negative ad_count %d for %s/%s/%s", r.AdCount, k.date, k.county, k.occupation)
		}
		if i, ok := index[k]; ok {
			out[i].count += r.AdCount
			continue
		}
		index[k] = len(out)
		out = append(out, storedAggregate{date: k.date, county: k.county, occupation: k.occupation, count: r.AdCount})
	}
	return out, nil
}

// Aggregates returns every aggregate row ordered by date, county and
// occupation group. Empty key parts come back as nil.
func (s *SQLiteStore) Aggregates(ctx context.Context) ([]model.DailyAggregate, error) {
	var out []model.DailyAggregate
	err := s.withDB(ctx, "read aggregates", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, selectAggregates)
		if err != nil {
			return errors.Wrap(err, "read aggregates")
		}
		defer rows.Close()

		for rows.Next() {
			var date, county, occ string
			var count int
			if err := rows.Scan(&date, &county, &occ, &count); err != nil {
				return errors.Wrap(err, "read aggregates: scan")
			}
			out = append(out, model.DailyAggregate{
				Date:            nullable(date),
				County:          nullable(county),
				OccupationGroup: nullable(occ),
				AdCount:         count,
			})
		}
		return errors.Wrap(rows.Err(), "read aggregates")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountRaw returns the number of stored raw ads.
func (s *SQLiteStore) CountRaw(ctx context.Context) (int, error) {
	var n int
	err := s.withDB(ctx, "count raw ads", func(db *sql.DB) error {
		return errors.Wrap(
			db.QueryRowContext(ctx, "SELECT COUNT(*) FROM raw_ads").Scan(&n),
			"count raw ads",
		)
	})
	return n, err
}

// RawAd returns the stored raw record for id, or sql.ErrNoRows.
func (s *SQLiteStore) RawAd(ctx context.Context, id string) (model.RawAd, error) {
	var raw model.RawAd
	err := s.withDB(ctx, "read raw ad", func(db *sql.DB) error {
		var fetchedAt, payload string
		err := db.QueryRowContext(ctx,
			"SELECT id, fetched_at, payload FROM raw_ads WHERE id = ?", id,
		).Scan(&raw.ID, &fetchedAt, &payload)
		if err != nil {
			return errors.Wrapf(err, "read raw ad %s", id)
		}
		raw.Payload = []byte(payload)
		raw.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt)
		return errors.Wrapf(err, "read raw ad %s: fetched_at", id)
	})
	return raw, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
