package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quakelab/bridgeval/internal/orchestrator"
)

// Archive stores finished evaluation runs in a SQLite database so a
// series of runs over the same bridge can be compared later.
type Archive struct {
	db *sql.DB
}

// RunRecord is one archived run's headline data.
type RunRecord struct {
	RunID          string
	CreatedAt      time.Time
	ElapsedSeconds float64
	OverallState   string
	MaxPierDrift   float64
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	elapsed_seconds REAL NOT NULL,
	overall_state TEXT,
	max_pier_drift REAL,
	document TEXT NOT NULL
);
`

// OpenArchive opens (and if necessary creates) a run archive.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// SaveRun archives one evaluation summary. The full document is stored
// as JSON alongside the headline columns.
func (a *Archive) SaveRun(summary *orchestrator.Summary) error {
	doc := Document(summary)
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode run document: %w", err)
	}

	overall := ""
	drift := 0.0
	if summary.Damage != nil && summary.Damage.TimeHistory != nil {
		overall = summary.Damage.TimeHistory.OverallState.String()
		drift = summary.Damage.TimeHistory.MaxPierDrift
	} else if summary.Damage != nil && summary.Damage.Static != nil {
		overall = summary.Damage.Static.State.String()
	}

	_, err = a.db.Exec(
		`INSERT INTO runs (run_id, created_at, elapsed_seconds, overall_state, max_pier_drift, document)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		summary.RunID, time.Now().UTC().Format(time.RFC3339), summary.ElapsedSeconds,
		overall, drift, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// ListRuns returns archived runs, newest first.
func (a *Archive) ListRuns() ([]RunRecord, error) {
	rows, err := a.db.Query(
		`SELECT run_id, created_at, elapsed_seconds, overall_state, max_pier_drift
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdAt string
		var overall sql.NullString
		var drift sql.NullFloat64
		if err := rows.Scan(&rec.RunID, &createdAt, &rec.ElapsedSeconds, &overall, &drift); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rec.OverallState = overall.String
		rec.MaxPierDrift = drift.Float64
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}
