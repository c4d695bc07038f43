package morphodb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/geomorfo/morfometria/internal/morpho"
)

// Run kinds.
const (
	KindElongation = "elongacion"
	KindGradient   = "gradiente"
)

// Run is one persisted analysis execution.
type Run struct {
	RunID        string          `json:"run_id"`
	Kind         string          `json:"kind"`
	InputPath    string          `json:"input_path"`
	OutputPath   string          `json:"output_path"`
	ParamsJSON   json.RawMessage `json:"params_json,omitempty"`
	FeatureCount int             `json:"feature_count"`
	WarningCount int             `json:"warning_count"`
	StatsJSON    json.RawMessage `json:"stats_json,omitempty"`
	CreatedAt    int64           `json:"created_at"`
}

// RunStore provides persistence for analysis runs and their results.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

// InsertRun persists a run record. If RunID is empty, a UUID is generated.
func (s *RunStore) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var paramsStr, statsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}
	if len(run.StatsJSON) > 0 {
		statsStr = string(run.StatsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO analysis_runs (
				run_id, kind, input_path, output_path, params_json,
				feature_count, warning_count, stats_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Kind, run.InputPath, run.OutputPath, paramsStr,
			run.FeatureCount, run.WarningCount, statsStr, run.CreatedAt,
		)
		return err
	})
}

// GetRun returns a single run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, kind, input_path, output_path, params_json,
		       feature_count, warning_count, stats_json, created_at
		FROM analysis_runs
		WHERE run_id = ?`, runID)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return r, err
}

// ListRuns returns runs of the given kind (or all kinds when kind is empty),
// newest first, up to limit.
func (s *RunStore) ListRuns(kind string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT run_id, kind, input_path, output_path, params_json,
		       feature_count, warning_count, stats_json, created_at
		FROM analysis_runs`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var paramsStr, statsStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.Kind, &r.InputPath, &r.OutputPath, &paramsStr,
		&r.FeatureCount, &r.WarningCount, &statsStr, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	if statsStr.Valid {
		r.StatsJSON = json.RawMessage(statsStr.String)
	}
	return &r, nil
}

// InsertElongationResults persists the per-basin results of a run in one
// transaction.
func (s *RunStore) InsertElongationResults(runID string, results []morpho.ElongationResult) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO elongation_results (
				run_id, basin_id, area, dist_max, diametro_eq, valor_elon,
				clasif_elon, num_puntos, min_x, min_y, min_z, max_x, max_y, max_z
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, r := range results {
			if _, err := stmt.Exec(
				runID, r.BasinID, r.Area, r.Distance3D, r.EquivalentDiameter,
				r.ElongationRatio, r.Class.String(), r.SampleCount,
				r.PointMin.X, r.PointMin.Y, r.PointMin.Z,
				r.PointMax.X, r.PointMax.Y, r.PointMax.Z,
			); err != nil {
				return fmt.Errorf("inserting basin %d: %w", r.BasinID, err)
			}
		}
		return tx.Commit()
	})
}

// InsertGradientResults persists the per-point results of a run in one
// transaction. orden_rio is 1-based, matching the output layer attribute.
func (s *RunStore) InsertGradientResults(runID string, results []morpho.GradientResult) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO gradient_results (
				run_id, orden_rio, point_id, x, y, z,
				slk_hack, slk_norm, dist_3d, dist_cabec, pendiente, validado
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, r := range results {
			if _, err := stmt.Exec(
				runID, r.Point.Order+1, r.Point.ID, r.Point.X, r.Point.Y, r.Point.Z,
				r.SLKFiltered, r.SLKNormalized, r.CumulativeDistance3D,
				r.MidpointDistance, r.SlopePercent, r.State.String(),
			); err != nil {
				return fmt.Errorf("inserting point %d: %w", r.Point.ID, err)
			}
		}
		return tx.Commit()
	})
}

// CountResults returns the persisted result-row count for a run.
func (s *RunStore) CountResults(runID, kind string) (int, error) {
	table := "elongation_results"
	if kind == KindGradient {
		table = "gradient_results"
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}
