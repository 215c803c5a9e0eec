package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/prim/internal/prim"
	"github.com/banshee-data/prim/internal/report"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored PRIM invocation.
type Run struct {
	ID        string          `json:"run_id"`
	Name      string          `json:"name"`
	DataPath  string          `json:"data_path"`
	Config    json.RawMessage `json:"config"`
	TotalRows int             `json:"total_rows"`
	TotalCOI  int             `json:"total_coi"`
	BoxCount  int             `json:"box_count"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewRun describes a run to be saved.
type NewRun struct {
	Name      string
	DataPath  string
	Config    interface{}
	TotalRows int
	TotalCOI  int
	Boxes     []report.Box
}

// SaveRun stores a run and all of its boxes in one transaction and returns
// the new run ID.
func (db *DB) SaveRun(ctx context.Context, run NewRun) (string, error) {
	cfg := []byte("{}")
	if run.Config != nil {
		var err error
		if cfg, err = json.Marshal(run.Config); err != nil {
			return "", fmt.Errorf("failed to encode run config: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO prim_runs (run_id, name, data_path, config_json, total_rows, total_coi, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, run.Name, run.DataPath, string(cfg), run.TotalRows, run.TotalCOI, db.clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, b := range run.Boxes {
		if err := insertBox(ctx, tx, runID, b); err != nil {
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

func insertBox(ctx context.Context, tx *sql.Tx, runID string, b report.Box) error {
	boxID := uuid.NewString()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO prim_boxes (box_id, run_id, box_index, pool_size, pool_coi, degenerate)
		VALUES (?, ?, ?, ?, ?, ?)`,
		boxID, runID, b.Index, b.PoolSize, b.PoolCOI, b.Degenerate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert box %d: %w", b.Index, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prim_box_steps (box_id, step, size, mean, mass, coverage, density, restricted_dims, limits_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range b.Steps {
		limits, err := json.Marshal(s.Limits)
		if err != nil {
			return fmt.Errorf("failed to encode limits for box %d step %d: %w", b.Index, i, err)
		}
		if _, err := stmt.ExecContext(ctx, boxID, i, s.Size, s.Mean, s.Mass, s.Coverage, s.Density, s.RestrictedDims, string(limits)); err != nil {
			return fmt.Errorf("failed to insert box %d step %d: %w", b.Index, i, err)
		}
	}
	return nil
}

const runColumns = `
	r.run_id, r.name, r.data_path, r.config_json, r.total_rows, r.total_coi, r.created_unix_nanos,
	(SELECT COUNT(*) FROM prim_boxes b WHERE b.run_id = r.run_id)`

func scanRun(scan func(dest ...interface{}) error) (Run, error) {
	var (
		r       Run
		cfg     string
		created int64
	)
	if err := scan(&r.ID, &r.Name, &r.DataPath, &cfg, &r.TotalRows, &r.TotalCOI, &created, &r.BoxCount); err != nil {
		return Run{}, err
	}
	r.Config = json.RawMessage(cfg)
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

// ListRuns returns runs newest first. limit <= 0 returns all of them.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT` + runColumns + ` FROM prim_runs r ORDER BY r.created_unix_nanos DESC, r.run_id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun loads one run by ID.
func (db *DB) GetRun(ctx context.Context, runID string) (Run, error) {
	row := db.QueryRowContext(ctx, `SELECT`+runColumns+` FROM prim_runs r WHERE r.run_id = ?`, runID)
	r, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// LoadBoxes reads back every box of a run, ordered by box index.
func (db *DB) LoadBoxes(ctx context.Context, runID string) ([]report.Box, error) {
	if _, err := db.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT b.box_id, b.box_index, b.pool_size, b.pool_coi, b.degenerate,
		       s.size, s.mean, s.mass, s.coverage, s.density, s.restricted_dims, s.limits_json
		FROM prim_boxes b
		LEFT JOIN prim_box_steps s ON s.box_id = b.box_id
		WHERE b.run_id = ?
		ORDER BY b.box_index, s.step`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load boxes: %w", err)
	}
	defer rows.Close()

	var (
		boxes  []report.Box
		lastID string
	)
	for rows.Next() {
		var (
			boxID      string
			b          report.Box
			size, rdim sql.NullInt64
			mean, mass sql.NullFloat64
			cov, dens  sql.NullFloat64
			limits     sql.NullString
		)
		if err := rows.Scan(&boxID, &b.Index, &b.PoolSize, &b.PoolCOI, &b.Degenerate,
			&size, &mean, &mass, &cov, &dens, &rdim, &limits); err != nil {
			return nil, err
		}
		if boxID != lastID {
			boxes = append(boxes, b)
			lastID = boxID
		}
		if !limits.Valid {
			continue
		}
		step := report.Step{
			Size:           int(size.Int64),
			Mean:           mean.Float64,
			Mass:           mass.Float64,
			Coverage:       cov.Float64,
			Density:        dens.Float64,
			RestrictedDims: int(rdim.Int64),
		}
		var bl prim.BoxLimits
		if err := json.Unmarshal([]byte(limits.String), &bl); err != nil {
			return nil, fmt.Errorf("box %d has corrupt limits: %w", b.Index, err)
		}
		step.Limits = bl
		cur := &boxes[len(boxes)-1]
		cur.Steps = append(cur.Steps, step)
	}
	return boxes, rows.Err()
}

// DeleteRun removes a run with its boxes and steps.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM prim_box_steps WHERE box_id IN (SELECT box_id FROM prim_boxes WHERE run_id = ?)`,
		`DELETE FROM prim_boxes WHERE run_id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, runID); err != nil {
			return fmt.Errorf("failed to delete run %s: %w", runID, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM prim_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return tx.Commit()
}

// RunBoxes adapts a stored run into a report.BoxSource.
func (db *DB) RunBoxes(runID string) report.BoxSource {
	return runSource{db: db, runID: runID}
}

type runSource struct {
	db    *DB
	runID string
}

func (s runSource) Boxes() ([]report.Box, error) {
	return s.db.LoadBoxes(context.Background(), s.runID)
}
