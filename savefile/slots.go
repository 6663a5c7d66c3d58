package savefile

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/plus3/driftworks/snapshot"
)

var ErrNotFound = errors.New("save slot not found")

// SlotInfo describes a stored slot without decoding it.
type SlotInfo struct {
	Name    string
	SaveID  uuid.UUID
	Tick    uint64
	SavedAt time.Time
	Size    int
}

// SlotStore keeps named saves in a sqlite database. Each slot holds the
// same bytes WriteFile would produce.
type SlotStore struct {
	db *sql.DB
}

// OpenSlots opens or creates the slot database at path. ":memory:" gives a
// private in-memory store.
func OpenSlots(path string) (*SlotStore, error) {
	if path == "" {
		return nil, errors.New("empty slot db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create slot dir")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open slot db")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SlotStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return errors.Wrap(err, p)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		name     TEXT PRIMARY KEY,
		save_id  TEXT NOT NULL,
		tick     INTEGER NOT NULL,
		saved_at TEXT NOT NULL,
		data     BLOB NOT NULL
	);`)
	return errors.Wrap(err, "create slots table")
}

func (s *SlotStore) Close() error {
	return s.db.Close()
}

// Save writes snap into slot name, replacing what was there.
func (s *SlotStore) Save(ctx context.Context, name string, tick uint64, snap snapshot.Snapshot) (Header, error) {
	raw, h, err := Marshal(tick, snap)
	if err != nil {
		return h, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO slots (name, save_id, tick, saved_at, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			save_id = excluded.save_id,
			tick = excluded.tick,
			saved_at = excluded.saved_at,
			data = excluded.data`,
		name, h.SaveID.String(), int64(h.Tick), time.Now().UTC().Format(time.RFC3339Nano), raw,
	)
	if err != nil {
		return h, errors.Wrapf(err, "save slot %q", name)
	}
	return h, nil
}

// Load reads and verifies slot name.
func (s *SlotStore) Load(ctx context.Context, name string) (Save, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM slots WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Save{}, errors.Wrap(ErrNotFound, name)
	}
	if err != nil {
		return Save{}, errors.Wrapf(err, "load slot %q", name)
	}
	save, err := Decode(bytes.NewReader(raw))
	return save, errors.Wrapf(err, "slot %q", name)
}

// List returns every slot ordered by name.
func (s *SlotStore) List(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, save_id, tick, saved_at, length(data) FROM slots ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list slots")
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var (
			info    SlotInfo
			id      string
			tick    int64
			savedAt string
		)
		if err := rows.Scan(&info.Name, &id, &tick, &savedAt, &info.Size); err != nil {
			return nil, errors.Wrap(err, "scan slot")
		}
		if info.SaveID, err = uuid.Parse(id); err != nil {
			return nil, errors.Wrapf(err, "slot %q save id", info.Name)
		}
		if info.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return nil, errors.Wrapf(err, "slot %q saved_at", info.Name)
		}
		info.Tick = uint64(tick)
		out = append(out, info)
	}
	return out, errors.Wrap(rows.Err(), "list slots")
}

// Delete removes slot name.
func (s *SlotStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name)
	if err != nil {
		return errors.Wrapf(err, "delete slot %q", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "delete slot %q", name)
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, name)
	}
	return nil
}
