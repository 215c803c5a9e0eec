package db

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/prim/internal/dataset"
	"github.com/banshee-data/prim/internal/monitoring"
	"github.com/banshee-data/prim/internal/prim"
	"github.com/banshee-data/prim/internal/report"
	"github.com/banshee-data/prim/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// setupTestDB opens a migrated database in a temp dir.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testBoxes(t *testing.T) []report.Box {
	t.Helper()
	names := []string{"rate", "policy"}
	limits := func(lo float64, cats ...string) prim.BoxLimits {
		bl, err := prim.NewBoxLimits(names, []prim.Limit{
			prim.Interval(dataset.Real, lo, 1),
			prim.CategorySet(cats...),
		})
		require.NoError(t, err)
		return bl
	}
	return []report.Box{
		{
			Index: 0, PoolSize: 200, PoolCOI: 40,
			Steps: []report.Step{
				{Limits: limits(0, "A", "B"), Size: 200, Mean: 0.2, Mass: 1, Coverage: 1, Density: 0.2},
				{Limits: limits(0.5, "A", "B"), Size: 100, Mean: 0.35, Mass: 0.5, Coverage: 0.875, Density: 0.35, RestrictedDims: 1},
				{Limits: limits(0.5, "A"), Size: 50, Mean: 0.7, Mass: 0.25, Coverage: 0.875, Density: 0.7, RestrictedDims: 2},
			},
		},
		{
			Index: 1, PoolSize: 150, PoolCOI: 5, Degenerate: true,
			Steps: []report.Step{
				{Limits: limits(0, "A", "B"), Size: 150, Mean: 0.03, Mass: 0.75, Coverage: 1, Density: 0.03},
			},
		},
	}
}

func TestNewDBAppliesMigrations(t *testing.T) {
	db := setupTestDB(t)

	st, err := db.GetMigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, uint(2), st.Current)
	assert.Equal(t, uint(2), st.Latest)
	assert.False(t, st.Dirty)
	assert.False(t, st.Pending())
	assert.Equal(t, []string{"prim_box_steps", "prim_boxes", "prim_runs", "schema_migrations"}, st.Tables)

	// Re-running is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestMigrateDownAndUp(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.MigrateDown())
	v, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	require.NoError(t, db.MigrateDown())
	st, err := db.GetMigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, uint(0), st.Current)
	assert.True(t, st.Pending())
	assert.Equal(t, []string{"schema_migrations"}, st.Tables)

	require.NoError(t, db.MigrateTo(1))
	v, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	require.NoError(t, db.MigrateUp())
	v, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestOpenDBLeavesSchemaAlone(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "raw.db"))
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'prim_runs'`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestLatestMigrationVersion(t *testing.T) {
	v, err := LatestMigrationVersion(MigrationsFS())
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestSaveAndLoadRun(t *testing.T) {
	db := setupTestDB(t)
	created := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	db.SetClock(timeutil.NewMockClock(created))

	ctx := context.Background()
	boxes := testBoxes(t)
	id, err := db.SaveRun(ctx, NewRun{
		Name:      "policy sweep",
		DataPath:  "results.csv",
		Config:    map[string]interface{}{"peel_alpha": 0.05},
		TotalRows: 200,
		TotalCOI:  40,
		Boxes:     boxes,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := db.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "policy sweep", run.Name)
	assert.Equal(t, "results.csv", run.DataPath)
	assert.Equal(t, 200, run.TotalRows)
	assert.Equal(t, 40, run.TotalCOI)
	assert.Equal(t, 2, run.BoxCount)
	assert.True(t, created.Equal(run.CreatedAt), "created = %v", run.CreatedAt)
	assert.JSONEq(t, `{"peel_alpha": 0.05}`, string(run.Config))

	got, err := db.LoadBoxes(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range boxes {
		want, have := boxes[i], got[i]
		assert.Equal(t, want.Index, have.Index)
		assert.Equal(t, want.PoolSize, have.PoolSize)
		assert.Equal(t, want.PoolCOI, have.PoolCOI)
		assert.Equal(t, want.Degenerate, have.Degenerate)
		require.Len(t, have.Steps, len(want.Steps))
		for j := range want.Steps {
			assert.True(t, want.Steps[j].Limits.Equal(have.Steps[j].Limits), "box %d step %d limits", i, j)
			if diff := cmp.Diff(want.Steps[j], have.Steps[j], cmp.Comparer(func(a, b prim.BoxLimits) bool { return a.Equal(b) })); diff != "" {
				t.Errorf("box %d step %d mismatch (-want +got):\n%s", i, j, diff)
			}
		}
	}
}

func TestSaveRunWithoutSteps(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.SaveRun(ctx, NewRun{Name: "empty", Boxes: []report.Box{{Index: 0, PoolSize: 0}}})
	require.NoError(t, err)

	got, err := db.LoadBoxes(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Steps)

	run, err := db.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(run.Config))
}

func TestListRunsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	db.SetClock(clock)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		id, err := db.SaveRun(ctx, NewRun{Name: name})
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Minute)
	}

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{runs[0].Name, runs[1].Name, runs[2].Name})
	assert.Equal(t, ids[2], runs[0].ID)

	limited, err := db.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDeleteRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.SaveRun(ctx, NewRun{Name: "doomed", Boxes: testBoxes(t)})
	require.NoError(t, err)
	require.NoError(t, db.DeleteRun(ctx, id))

	_, err = db.GetRun(ctx, id)
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)
	_, err = db.LoadBoxes(ctx, id)
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)

	for _, table := range []string{"prim_boxes", "prim_box_steps"} {
		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Equal(t, 0, n, table)
	}

	err = db.DeleteRun(ctx, id)
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)
}

func TestRunBoxesSource(t *testing.T) {
	db := setupTestDB(t)
	id, err := db.SaveRun(context.Background(), NewRun{Boxes: testBoxes(t)})
	require.NoError(t, err)

	boxes, err := db.RunBoxes(id).Boxes()
	require.NoError(t, err)
	assert.Len(t, boxes, 2)

	_, err = db.RunBoxes("missing").Boxes()
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func debugRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:40000"
	return req
}

func TestAttachAdminRoutes(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.SaveRun(context.Background(), NewRun{Name: "backed up", Boxes: testBoxes(t)})
	require.NoError(t, err)

	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, debugRequest(http.MethodGet, "/debug/"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tailsql")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, debugRequest(http.MethodGet, "/debug/backup"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))

	gz, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("SQLite format 3\x00")))
}
