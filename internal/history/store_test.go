package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/image-update-checker/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "history.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("Expected database directory to exist: %v", err)
	}
}

func TestStore_SaveResultAndList(t *testing.T) {
	store := newTestStore(t)

	checkedAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	result := &types.CheckResult{
		CheckedAt: checkedAt,
		Reports: []types.ReferenceReport{
			{
				Reference:  "nginx:1.27.0",
				Image:      types.ImageReference{Registry: types.DefaultRegistry, Repository: "library/nginx", Tag: "1.27.0"},
				NewerTags:  []string{"1.27.1", "1.28.0"},
				LatestTag:  "1.28.0",
				UpdateType: types.UpdateTypeMinor,
				CheckedAt:  checkedAt,
			},
			{
				Reference:  "redis:7.4.0",
				Image:      types.ImageReference{Registry: types.DefaultRegistry, Repository: "library/redis", Tag: "7.4.0"},
				UpdateType: types.UpdateTypeNone,
				CheckedAt:  checkedAt.Add(time.Second),
			},
		},
	}

	if err := store.SaveResult(result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	entries, err := store.List(ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	// Newest first
	if entries[0].Reference != "redis:7.4.0" {
		t.Errorf("Expected redis entry first, got %s", entries[0].Reference)
	}

	nginx := entries[1]
	if nginx.CurrentTag != "1.27.0" {
		t.Errorf("CurrentTag = %s, want 1.27.0", nginx.CurrentTag)
	}
	if len(nginx.NewerTags) != 2 || nginx.NewerTags[0] != "1.27.1" || nginx.NewerTags[1] != "1.28.0" {
		t.Errorf("NewerTags = %v, want [1.27.1 1.28.0]", nginx.NewerTags)
	}
	if nginx.LatestTag != "1.28.0" {
		t.Errorf("LatestTag = %s, want 1.28.0", nginx.LatestTag)
	}
	if nginx.UpdateType != types.UpdateTypeMinor {
		t.Errorf("UpdateType = %s, want %s", nginx.UpdateType, types.UpdateTypeMinor)
	}
	if !nginx.CheckedAt.Equal(checkedAt) {
		t.Errorf("CheckedAt = %v, want %v", nginx.CheckedAt, checkedAt)
	}
}

func TestStore_SaveResult_Empty(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveResult(nil); err != nil {
		t.Errorf("SaveResult(nil) should not fail: %v", err)
	}
	if err := store.SaveResult(&types.CheckResult{}); err != nil {
		t.Errorf("SaveResult with no reports should not fail: %v", err)
	}

	entries, err := store.List(ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestStore_SaveResult_FailedReport(t *testing.T) {
	store := newTestStore(t)

	result := &types.CheckResult{
		CheckedAt: time.Now(),
		Reports: []types.ReferenceReport{
			{
				Reference:  "nginx",
				UpdateType: types.UpdateTypeUnknown,
				Error:      "no tag found in reference",
				CheckedAt:  time.Now(),
			},
		},
	}

	if err := store.SaveResult(result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	entries, err := store.List(ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Error != "no tag found in reference" {
		t.Errorf("Error = %q, want failure message", entries[0].Error)
	}
	if len(entries[0].NewerTags) != 0 {
		t.Errorf("Expected no newer tags, got %v", entries[0].NewerTags)
	}
}

func TestStore_List_FilterByReference(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	result := &types.CheckResult{
		CheckedAt: now,
		Reports: []types.ReferenceReport{
			{Reference: "nginx:1.27.0", Image: types.ImageReference{Tag: "1.27.0"}, UpdateType: types.UpdateTypeNone, CheckedAt: now},
			{Reference: "redis:7.4.0", Image: types.ImageReference{Tag: "7.4.0"}, UpdateType: types.UpdateTypeNone, CheckedAt: now},
			{Reference: "nginx:1.27.0", Image: types.ImageReference{Tag: "1.27.0"}, UpdateType: types.UpdateTypeNone, CheckedAt: now.Add(time.Minute)},
		},
	}

	if err := store.SaveResult(result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	entries, err := store.List(ListOptions{Reference: "nginx:1.27.0"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 nginx entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Reference != "nginx:1.27.0" {
			t.Errorf("Unexpected reference in filtered list: %s", entry.Reference)
		}
	}
}

func TestStore_List_Limit(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	var reports []types.ReferenceReport
	for i := 0; i < 5; i++ {
		reports = append(reports, types.ReferenceReport{
			Reference:  "nginx:1.27.0",
			Image:      types.ImageReference{Tag: "1.27.0"},
			UpdateType: types.UpdateTypeNone,
			CheckedAt:  now.Add(time.Duration(i) * time.Minute),
		})
	}

	if err := store.SaveResult(&types.CheckResult{CheckedAt: now, Reports: reports}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	entries, err := store.List(ListOptions{Limit: 3})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries with limit, got %d", len(entries))
	}

	// Newest entry comes first
	want := now.Add(4 * time.Minute)
	if !entries[0].CheckedAt.Equal(want) {
		t.Errorf("First entry CheckedAt = %v, want %v", entries[0].CheckedAt, want)
	}
}

func TestStore_Prune(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	result := &types.CheckResult{
		CheckedAt: now,
		Reports: []types.ReferenceReport{
			{Reference: "old:1.0.0", Image: types.ImageReference{Tag: "1.0.0"}, UpdateType: types.UpdateTypeNone, CheckedAt: now.Add(-72 * time.Hour)},
			{Reference: "fresh:1.0.0", Image: types.ImageReference{Tag: "1.0.0"}, UpdateType: types.UpdateTypeNone, CheckedAt: now},
		},
	}

	if err := store.SaveResult(result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	deleted, err := store.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if deleted != 1 {
		t.Errorf("Expected 1 deleted entry, got %d", deleted)
	}

	entries, err := store.List(ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected 1 remaining entry, got %d", len(entries))
	}
	if entries[0].Reference != "fresh:1.0.0" {
		t.Errorf("Expected fresh entry to survive, got %s", entries[0].Reference)
	}
}
