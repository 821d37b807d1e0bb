package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/density.report/internal/timeutil"
)

// MergeRun is a persisted record of one completed merge: which files went
// in, the combined grid geometry, value statistics, and where the output
// was written.
type MergeRun struct {
	ID          string  `json:"id"`
	CreatedAtNs int64   `json:"created_at_ns"`
	OutputPath  string  `json:"output_path"`
	FileCount   int     `json:"file_count"`
	NX          int     `json:"nx"`
	NY          int     `json:"ny"`
	NZ          int     `json:"nz"`
	OriginX     float64 `json:"origin_x"`
	OriginY     float64 `json:"origin_y"`
	OriginZ     float64 `json:"origin_z"`
	Spacing     float64 `json:"spacing"`
	PointCount  int     `json:"point_count"`
	MinValue    float64 `json:"min_value"`
	MaxValue    float64 `json:"max_value"`
	MeanValue   float64 `json:"mean_value"`
	StdDev      float64 `json:"std_dev"`
	DurationMs  int64   `json:"duration_ms"`
}

// RunStore provides persistence for merge run records.
type RunStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewRunStore creates a new RunStore. A nil clock defaults to wall time.
func NewRunStore(db *DB, clock timeutil.Clock) *RunStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunStore{db: db, clock: clock}
}

// Insert persists a new merge run. If ID is empty, a UUID is generated.
// If CreatedAtNs is zero, the store's clock supplies it.
func (s *RunStore) Insert(run *MergeRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = s.clock.Now().UnixNano()
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO merge_runs (
				id, created_at_ns, output_path, file_count,
				nx, ny, nz, origin_x, origin_y, origin_z, spacing,
				point_count, min_value, max_value, mean_value, std_dev,
				duration_ms
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.CreatedAtNs, run.OutputPath, run.FileCount,
			run.NX, run.NY, run.NZ, run.OriginX, run.OriginY, run.OriginZ, run.Spacing,
			run.PointCount, run.MinValue, run.MaxValue, run.MeanValue, run.StdDev,
			run.DurationMs,
		)
		return err
	})
}

// Get returns a single merge run by ID.
func (s *RunStore) Get(id string) (*MergeRun, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at_ns, output_path, file_count,
		       nx, ny, nz, origin_x, origin_y, origin_z, spacing,
		       point_count, min_value, max_value, mean_value, std_dev,
		       duration_ms
		FROM merge_runs
		WHERE id = ?`, id)

	var r MergeRun
	err := row.Scan(
		&r.ID, &r.CreatedAtNs, &r.OutputPath, &r.FileCount,
		&r.NX, &r.NY, &r.NZ, &r.OriginX, &r.OriginY, &r.OriginZ, &r.Spacing,
		&r.PointCount, &r.MinValue, &r.MaxValue, &r.MeanValue, &r.StdDev,
		&r.DurationMs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("merge run %s not found", id)
		}
		return nil, fmt.Errorf("scan merge run: %w", err)
	}
	return &r, nil
}

// List returns the most recent merge runs, newest first. A limit of zero
// or less returns up to 50 runs.
func (s *RunStore) List(limit int) ([]*MergeRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, created_at_ns, output_path, file_count,
		       nx, ny, nz, origin_x, origin_y, origin_z, spacing,
		       point_count, min_value, max_value, mean_value, std_dev,
		       duration_ms
		FROM merge_runs
		ORDER BY created_at_ns DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query merge runs: %w", err)
	}
	defer rows.Close()

	var runs []*MergeRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes a merge run by ID.
func (s *RunStore) Delete(id string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM merge_runs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete merge run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("merge run %s not found", id)
		}
		return nil
	})
}

// scanRun scans a merge run row from a sql.Rows cursor.
func scanRun(rows *sql.Rows) (*MergeRun, error) {
	var r MergeRun
	err := rows.Scan(
		&r.ID, &r.CreatedAtNs, &r.OutputPath, &r.FileCount,
		&r.NX, &r.NY, &r.NZ, &r.OriginX, &r.OriginY, &r.OriginZ, &r.Spacing,
		&r.PointCount, &r.MinValue, &r.MaxValue, &r.MeanValue, &r.StdDev,
		&r.DurationMs,
	)
	if err != nil {
		return nil, fmt.Errorf("scan merge run row: %w", err)
	}
	return &r, nil
}
