package report

import (
	"database/sql"
	"fmt"

	"github.com/LdDl/grabbed-go/grab"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps grabbed item events in SQLite database: one row per frame with grabbed item
type SQLiteStore struct {
	db      *sql.DB
	session string
}

// GrabbedCount is number of frames an identity has been considered as grabbed
type GrabbedCount struct {
	TrackID       int
	ClassName     string
	Frames        int
	MaxTrajectory float64
}

// OpenSQLiteStore opens (creating if needed) database at path and prepares schema.
// Rows written by the store are tagged by session name
func OpenSQLiteStore(path string, session string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open database '%s'", path)
	}
	store := &SQLiteStore{
		db:      db,
		session: session,
	}
	if err := store.runMigrations(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Can't prepare database schema")
	}
	return store, nil
}

// migration represents a single schema change
type migration struct {
	version int
	name    string
	query   string
}

var migrations = []migration{
	{
		version: 1,
		name:    "grabbed_events",
		query: `
			CREATE TABLE IF NOT EXISTS grabbed_events (
				session TEXT NOT NULL,
				frame_index INTEGER NOT NULL,
				track_id INTEGER NOT NULL,
				class_id INTEGER NOT NULL,
				class_name TEXT NOT NULL,
				trajectory_length REAL NOT NULL,
				start_frame INTEGER NOT NULL,
				end_frame INTEGER NOT NULL,
				duration_frames INTEGER NOT NULL,
				PRIMARY KEY (session, frame_index)
			)
		`,
	},
	{
		version: 2,
		name:    "grabbed_events_track_index",
		query:   `CREATE INDEX IF NOT EXISTS idx_grabbed_events_track ON grabbed_events (session, track_id)`,
	},
}

func (store *SQLiteStore) runMigrations() error {
	_, err := store.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return err
	}
	var version int
	err = store.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if _, err := store.db.Exec(m.query); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		if _, err := store.db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
			return fmt.Errorf("can't save migration %d: %w", m.version, err)
		}
	}
	return nil
}

// Write implements Sink. Frames without grabbed item are not stored
func (store *SQLiteStore) Write(result grab.FrameResult) error {
	grabbed := result.Grabbed
	if grabbed == nil {
		return nil
	}
	_, err := store.db.Exec(`
		INSERT OR REPLACE INTO grabbed_events
			(session, frame_index, track_id, class_id, class_name, trajectory_length, start_frame, end_frame, duration_frames)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		store.session,
		result.FrameIndex,
		grabbed.TrackID,
		grabbed.ClassID,
		grabbed.ClassName,
		grabbed.TrajectoryLength,
		grabbed.StartFrame,
		grabbed.EndFrame,
		grabbed.DurationFrames,
	)
	if err != nil {
		return errors.Wrapf(err, "Can't insert event for frame %d", result.FrameIndex)
	}
	return nil
}

// GrabbedCounts returns for every identity of the session the number of frames it has been
// considered as grabbed. Most frequent identity goes first
func (store *SQLiteStore) GrabbedCounts() ([]GrabbedCount, error) {
	rows, err := store.db.Query(`
		SELECT track_id, MAX(class_name), COUNT(*), MAX(trajectory_length)
		FROM grabbed_events
		WHERE session = ?
		GROUP BY track_id
		ORDER BY COUNT(*) DESC, track_id ASC
	`, store.session)
	if err != nil {
		return nil, errors.Wrap(err, "Can't query grabbed counts")
	}
	defer rows.Close()

	counts := make([]GrabbedCount, 0)
	for rows.Next() {
		count := GrabbedCount{}
		if err := rows.Scan(&count.TrackID, &count.ClassName, &count.Frames, &count.MaxTrajectory); err != nil {
			return nil, errors.Wrap(err, "Can't scan grabbed count")
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

// LastEvent returns grabbed item of the latest stored frame of the session
func (store *SQLiteStore) LastEvent() (grab.GrabbedItemRecord, bool, error) {
	record := grab.GrabbedItemRecord{}
	err := store.db.QueryRow(`
		SELECT track_id, class_id, class_name, trajectory_length, start_frame, end_frame, duration_frames
		FROM grabbed_events
		WHERE session = ?
		ORDER BY frame_index DESC
		LIMIT 1
	`, store.session).Scan(
		&record.TrackID,
		&record.ClassID,
		&record.ClassName,
		&record.TrajectoryLength,
		&record.StartFrame,
		&record.EndFrame,
		&record.DurationFrames,
	)
	if err == sql.ErrNoRows {
		return grab.GrabbedItemRecord{}, false, nil
	}
	if err != nil {
		return grab.GrabbedItemRecord{}, false, errors.Wrap(err, "Can't query last event")
	}
	return record, true, nil
}

// Close implements Sink
func (store *SQLiteStore) Close() error {
	return store.db.Close()
}
