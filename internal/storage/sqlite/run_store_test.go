package sqlite

import (
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/density.report/internal/timeutil"
)

func setupTestRunStore(t *testing.T) (*RunStore, *timeutil.MockClock) {
	t.Helper()
	db := openTestDB(t)
	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	clock := timeutil.NewMockClock(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	return NewRunStore(db, clock), clock
}

func sampleRun(output string) *MergeRun {
	return &MergeRun{
		OutputPath: output,
		FileCount:  27,
		NX:         46, NY: 46, NZ: 46,
		OriginX: 10.5, OriginY: 11.5, OriginZ: 12.5,
		Spacing:    0.5,
		PointCount: 97336,
		MinValue:   0,
		MaxValue:   0.1827,
		MeanValue:  0.0331,
		StdDev:     0.0075,
		DurationMs: 412,
	}
}

func TestRunStore_InsertAssignsIDAndTimestamp(t *testing.T) {
	store, clock := setupTestRunStore(t)

	run := sampleRun("merged.dx")
	if err := store.Insert(run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if run.ID == "" {
		t.Error("expected Insert to assign an ID")
	}
	if run.CreatedAtNs != clock.Now().UnixNano() {
		t.Errorf("expected CreatedAtNs %d from clock, got %d", clock.Now().UnixNano(), run.CreatedAtNs)
	}
}

func TestRunStore_InsertKeepsExplicitFields(t *testing.T) {
	store, _ := setupTestRunStore(t)

	run := sampleRun("merged.dx")
	run.ID = "run-explicit"
	run.CreatedAtNs = 42

	if err := store.Insert(run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if run.ID != "run-explicit" {
		t.Errorf("expected explicit ID preserved, got %q", run.ID)
	}
	if run.CreatedAtNs != 42 {
		t.Errorf("expected explicit CreatedAtNs preserved, got %d", run.CreatedAtNs)
	}
}

func TestRunStore_InsertAndGet(t *testing.T) {
	store, _ := setupTestRunStore(t)

	run := sampleRun("maps/combined.dx")
	if err := store.Insert(run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Get(run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if *got != *run {
		t.Errorf("Get returned %+v, want %+v", got, run)
	}
}

func TestRunStore_GetMissing(t *testing.T) {
	store, _ := setupTestRunStore(t)

	_, err := store.Get("no-such-run")
	if err == nil {
		t.Fatal("expected error for missing run, got nil")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' in error, got: %v", err)
	}
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	store, clock := setupTestRunStore(t)

	for _, output := range []string{"first.dx", "second.dx", "third.dx"} {
		if err := store.Insert(sampleRun(output)); err != nil {
			t.Fatalf("Insert %s failed: %v", output, err)
		}
		clock.Advance(time.Second)
	}

	runs, err := store.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}

	wantOrder := []string{"third.dx", "second.dx", "first.dx"}
	for i, want := range wantOrder {
		if runs[i].OutputPath != want {
			t.Errorf("runs[%d].OutputPath = %q, want %q", i, runs[i].OutputPath, want)
		}
	}
}

func TestRunStore_ListHonoursLimit(t *testing.T) {
	store, clock := setupTestRunStore(t)

	for i := 0; i < 5; i++ {
		if err := store.Insert(sampleRun("run.dx")); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		clock.Advance(time.Second)
	}

	runs, err := store.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs with limit 2, got %d", len(runs))
	}

	// Zero falls back to the default limit.
	runs, err = store.List(0)
	if err != nil {
		t.Fatalf("List with zero limit failed: %v", err)
	}
	if len(runs) != 5 {
		t.Errorf("expected all 5 runs with default limit, got %d", len(runs))
	}
}

func TestRunStore_ListEmpty(t *testing.T) {
	store, _ := setupTestRunStore(t)

	runs, err := store.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs in empty store, got %d", len(runs))
	}
}

func TestRunStore_Delete(t *testing.T) {
	store, _ := setupTestRunStore(t)

	run := sampleRun("merged.dx")
	if err := store.Insert(run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Delete(run.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get(run.ID); err == nil {
		t.Error("expected Get after Delete to fail")
	}
}

func TestRunStore_DeleteMissing(t *testing.T) {
	store, _ := setupTestRunStore(t)

	err := store.Delete("no-such-run")
	if err == nil {
		t.Fatal("expected error deleting missing run, got nil")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' in error, got: %v", err)
	}
}
