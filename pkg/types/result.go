package types

import (
	"fmt"
	"time"
)

// ReferenceReport representa el resultado de comprobar una referencia
// individual contra su registro
type ReferenceReport struct {
	Reference  string         `json:"reference"`
	Image      ImageReference `json:"image"`
	NewerTags  []string       `json:"newer_tags,omitempty"`
	LatestTag  string         `json:"latest_tag,omitempty"`
	UpdateType UpdateType     `json:"update_type"`
	Error      string         `json:"error,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// HasUpdates indica si se encontraron versiones más nuevas
func (r ReferenceReport) HasUpdates() bool {
	return len(r.NewerTags) > 0
}

// Failed indica si la referencia no pudo procesarse
func (r ReferenceReport) Failed() bool {
	return r.Error != ""
}

// CheckResult representa el resultado completo de una comprobación
type CheckResult struct {
	CheckedAt time.Time         `json:"checked_at"`
	Duration  time.Duration     `json:"duration"`
	Reports   []ReferenceReport `json:"reports"`
}

// HasUpdates indica si alguna referencia tiene versiones más nuevas
func (r CheckResult) HasUpdates() bool {
	for _, report := range r.Reports {
		if report.HasUpdates() {
			return true
		}
	}
	return false
}

// HasErrors indica si alguna referencia falló durante la comprobación
func (r CheckResult) HasErrors() bool {
	for _, report := range r.Reports {
		if report.Failed() {
			return true
		}
	}
	return false
}

// TotalUpdates devuelve el número total de versiones más nuevas encontradas
func (r CheckResult) TotalUpdates() int {
	total := 0
	for _, report := range r.Reports {
		total += len(report.NewerTags)
	}
	return total
}

// UpdatedReferences devuelve las referencias con versiones más nuevas
func (r CheckResult) UpdatedReferences() []ReferenceReport {
	var updated []ReferenceReport
	for _, report := range r.Reports {
		if report.HasUpdates() {
			updated = append(updated, report)
		}
	}
	return updated
}

// FailedReferences devuelve las referencias que no pudieron procesarse
func (r CheckResult) FailedReferences() []ReferenceReport {
	var failed []ReferenceReport
	for _, report := range r.Reports {
		if report.Failed() {
			failed = append(failed, report)
		}
	}
	return failed
}

// UpToDateCount devuelve cuántas referencias están al día
func (r CheckResult) UpToDateCount() int {
	count := 0
	for _, report := range r.Reports {
		if !report.HasUpdates() && !report.Failed() {
			count++
		}
	}
	return count
}

// Merge añade los reportes de otro resultado a este
func (r *CheckResult) Merge(other *CheckResult) {
	if other == nil {
		return
	}
	r.Reports = append(r.Reports, other.Reports...)
	r.Duration += other.Duration
	if r.CheckedAt.IsZero() {
		r.CheckedAt = other.CheckedAt
	}
}

// Summary devuelve un resumen del resultado de la comprobación
func (r CheckResult) Summary() string {
	switch {
	case r.HasUpdates() && r.HasErrors():
		return fmt.Sprintf("%d newer versions across %d references, %d failed",
			r.TotalUpdates(), len(r.UpdatedReferences()), len(r.FailedReferences()))
	case r.HasUpdates():
		return fmt.Sprintf("%d newer versions across %d references, %d up to date",
			r.TotalUpdates(), len(r.UpdatedReferences()), r.UpToDateCount())
	case r.HasErrors():
		return fmt.Sprintf("%d references up to date, %d failed",
			r.UpToDateCount(), len(r.FailedReferences()))
	default:
		return fmt.Sprintf("All %d references are up to date", len(r.Reports))
	}
}
