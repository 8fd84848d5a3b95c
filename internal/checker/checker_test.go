package checker

import (
	"context"
	"testing"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

// stubLister serves canned tag lists keyed by repository
type stubLister struct {
	tags  map[string][]string
	err   error
	calls []string
}

func (s *stubLister) ListTags(ctx context.Context, image types.ImageReference) ([]string, error) {
	s.calls = append(s.calls, image.Repository)
	if s.err != nil {
		return nil, s.err
	}
	return s.tags[image.Repository], nil
}

func (s *stubLister) Name() string {
	return "stub"
}

func TestService_CheckReferences(t *testing.T) {
	lister := &stubLister{
		tags: map[string][]string{
			"library/nginx": {"1.26.0", "1.27.0", "1.27.1", "1.28.0-beta", "2.0.0", "latest"},
		},
	}
	service := NewService(lister, nil)

	result := service.CheckReferences(context.Background(), []string{"nginx:1.27.0"}, Options{})

	if len(result.Reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(result.Reports))
	}

	report := result.Reports[0]
	if report.Failed() {
		t.Fatalf("Unexpected error: %s", report.Error)
	}

	expectedNewer := []string{"1.27.1", "2.0.0"}
	if len(report.NewerTags) != len(expectedNewer) {
		t.Fatalf("NewerTags = %v, want %v", report.NewerTags, expectedNewer)
	}
	for i, tag := range expectedNewer {
		if report.NewerTags[i] != tag {
			t.Errorf("NewerTags[%d] = %q, want %q", i, report.NewerTags[i], tag)
		}
	}

	if report.LatestTag != "2.0.0" {
		t.Errorf("LatestTag = %q, want %q", report.LatestTag, "2.0.0")
	}
	if report.UpdateType != types.UpdateTypeMajor {
		t.Errorf("UpdateType = %v, want %v", report.UpdateType, types.UpdateTypeMajor)
	}
	if !result.HasUpdates() {
		t.Error("Expected result to have updates")
	}
}

func TestService_CheckReferences_BadReferenceDoesNotStopBatch(t *testing.T) {
	lister := &stubLister{
		tags: map[string][]string{
			"library/nginx": {"1.27.0", "1.27.1"},
		},
	}
	service := NewService(lister, nil)

	refs := []string{"nginx", "nginx:1.27.0"}
	result := service.CheckReferences(context.Background(), refs, Options{})

	if len(result.Reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(result.Reports))
	}

	if !result.Reports[0].Failed() {
		t.Error("Expected first report to fail without a tag")
	}
	if result.Reports[1].Failed() {
		t.Errorf("Second reference should succeed, got error: %s", result.Reports[1].Error)
	}
	if result.Reports[1].LatestTag != "1.27.1" {
		t.Errorf("LatestTag = %q, want %q", result.Reports[1].LatestTag, "1.27.1")
	}

	// Solo la referencia válida llega al registro
	if len(lister.calls) != 1 {
		t.Errorf("Expected 1 registry call, got %d", len(lister.calls))
	}
}

func TestService_CheckReferences_NonVersionTag(t *testing.T) {
	lister := &stubLister{tags: map[string][]string{}}
	service := NewService(lister, nil)

	result := service.CheckReferences(context.Background(), []string{"nginx:latest"}, Options{})

	if len(result.Reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(result.Reports))
	}
	if !result.Reports[0].Failed() {
		t.Fatal("Expected error for tag without version shape")
	}

	// El tag actual se valida antes de consultar el registro
	if len(lister.calls) != 0 {
		t.Errorf("Expected no registry calls, got %d", len(lister.calls))
	}
}

func TestService_CheckReferences_ListerError(t *testing.T) {
	lister := &stubLister{err: errors.ErrRegistryRequestFailed}
	service := NewService(lister, nil)

	result := service.CheckReferences(context.Background(), []string{"nginx:1.27.0"}, Options{})

	if !result.HasErrors() {
		t.Fatal("Expected result to have errors")
	}
	if result.HasUpdates() {
		t.Error("Failed reference should not report updates")
	}
}

func TestService_CheckReferences_UpToDate(t *testing.T) {
	lister := &stubLister{
		tags: map[string][]string{
			"library/redis": {"7.2.0", "7.4.0", "7.4.0-alpine"},
		},
	}
	service := NewService(lister, nil)

	result := service.CheckReferences(context.Background(), []string{"redis:7.4.0"}, Options{})

	report := result.Reports[0]
	if report.HasUpdates() {
		t.Errorf("Expected no updates, got %v", report.NewerTags)
	}
	if report.UpdateType != types.UpdateTypeNone {
		t.Errorf("UpdateType = %v, want %v", report.UpdateType, types.UpdateTypeNone)
	}
	if result.HasUpdates() || result.HasErrors() {
		t.Error("Expected a clean result")
	}
}

func TestService_CheckReferences_Constraint(t *testing.T) {
	lister := &stubLister{
		tags: map[string][]string{
			"library/nginx": {"1.27.1", "1.28.0", "2.0.0"},
		},
	}
	service := NewService(lister, nil)

	result := service.CheckReferences(context.Background(), []string{"nginx:1.27.0"}, Options{Constraint: "< 2.0.0"})

	report := result.Reports[0]
	expected := []string{"1.27.1", "1.28.0"}
	if len(report.NewerTags) != len(expected) {
		t.Fatalf("NewerTags = %v, want %v", report.NewerTags, expected)
	}
	if report.LatestTag != "1.28.0" {
		t.Errorf("LatestTag = %q, want %q", report.LatestTag, "1.28.0")
	}
	if report.UpdateType != types.UpdateTypeMinor {
		t.Errorf("UpdateType = %v, want %v", report.UpdateType, types.UpdateTypeMinor)
	}
}

func TestService_CheckImages(t *testing.T) {
	lister := &stubLister{
		tags: map[string][]string{
			"linuxserver/speedtest-tracker": {"1.6.5", "1.6.6"},
		},
	}
	service := NewService(lister, nil)

	images := []types.ImageReference{
		{
			Registry:    types.DefaultRegistry,
			Repository:  "linuxserver/speedtest-tracker",
			Tag:         "1.6.5",
			ServiceName: "speedtest",
			ComposeFile: "docker-compose.yml",
		},
	}

	result := service.CheckImages(context.Background(), images, Options{})

	if len(result.Reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(result.Reports))
	}

	report := result.Reports[0]
	if report.Image.ServiceName != "speedtest" {
		t.Errorf("ServiceName = %q, want %q", report.Image.ServiceName, "speedtest")
	}
	if report.LatestTag != "1.6.6" {
		t.Errorf("LatestTag = %q, want %q", report.LatestTag, "1.6.6")
	}
	if report.UpdateType != types.UpdateTypePatch {
		t.Errorf("UpdateType = %v, want %v", report.UpdateType, types.UpdateTypePatch)
	}
}
