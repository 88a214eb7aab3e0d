package trace

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS drops (
  t REAL NOT NULL,
  face TEXT NOT NULL,
  name TEXT NOT NULL,
  reason TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS emits (
  t REAL NOT NULL,
  face TEXT NOT NULL,
  size INTEGER NOT NULL,
  rate REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS rates (
  t REAL NOT NULL,
  face TEXT NOT NULL,
  shaping REAL NOT NULL,
  observed_in REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS sojourns (
  t REAL NOT NULL,
  face TEXT NOT NULL,
  sojourn REAL NOT NULL,
  dropping INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS picks (
  t REAL NOT NULL,
  node TEXT NOT NULL,
  face TEXT NOT NULL,
  name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS nacks (
  t REAL NOT NULL,
  node TEXT NOT NULL,
  face TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS datas (
  t REAL NOT NULL,
  app TEXT NOT NULL,
  name TEXT NOT NULL,
  freq REAL NOT NULL
);
`

func secs(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// WriteSQLite dumps the collected events into a results database at path.
// The file is created if missing; existing rows are kept, so successive
// runs can share one database.
func (c *Collector) WriteSQLite(path string) error {
	if c == nil {
		return nil
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open trace db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create trace schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range c.Drops {
		if _, err := tx.Exec(`INSERT INTO drops (t, face, name, reason) VALUES (?, ?, ?, ?)`,
			secs(d.Time), d.Face, d.Name, d.Reason.String()); err != nil {
			return err
		}
	}
	for _, e := range c.Emits {
		if _, err := tx.Exec(`INSERT INTO emits (t, face, size, rate) VALUES (?, ?, ?, ?)`,
			secs(e.Time), e.Face, e.Size, e.Rate); err != nil {
			return err
		}
	}
	for _, r := range c.Rates {
		if _, err := tx.Exec(`INSERT INTO rates (t, face, shaping, observed_in) VALUES (?, ?, ?, ?)`,
			secs(r.Time), r.Face, r.Shaping, r.ObservedIn); err != nil {
			return err
		}
	}
	for _, s := range c.Sojourns {
		if _, err := tx.Exec(`INSERT INTO sojourns (t, face, sojourn, dropping) VALUES (?, ?, ?, ?)`,
			secs(s.Time), s.Face, s.Sojourn.Seconds(), s.Dropping); err != nil {
			return err
		}
	}
	for _, p := range c.Picks {
		if _, err := tx.Exec(`INSERT INTO picks (t, node, face, name) VALUES (?, ?, ?, ?)`,
			secs(p.Time), p.Node, p.Face, p.Name); err != nil {
			return err
		}
	}
	for _, n := range c.Nacks {
		if _, err := tx.Exec(`INSERT INTO nacks (t, node, face, code, name) VALUES (?, ?, ?, ?, ?)`,
			secs(n.Time), n.Node, n.Face, n.Code, n.Name); err != nil {
			return err
		}
	}
	for _, d := range c.Datas {
		if _, err := tx.Exec(`INSERT INTO datas (t, app, name, freq) VALUES (?, ?, ?, ?)`,
			secs(d.Time), d.App, d.Name, d.Freq); err != nil {
			return err
		}
	}

	return tx.Commit()
}
