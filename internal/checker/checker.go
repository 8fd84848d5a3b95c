package checker

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/image-update-checker/pkg/reference"
	"github.com/user/image-update-checker/pkg/types"
	"github.com/user/image-update-checker/pkg/version"
)

// Service orchestrates checking image references against their registries
type Service struct {
	lister types.TagLister
	logger *slog.Logger
}

// Options holds per-run options for a check
type Options struct {
	// Constraint restricts reported versions to a semver range, empty means
	// no restriction
	Constraint string
}

// NewService creates a new checker service
func NewService(lister types.TagLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		lister: lister,
		logger: logger,
	}
}

// CheckReferences checks raw image references as given on the command line.
// References are parsed strictly, so a missing tag is reported as an error
// for that reference. Each reference is processed end-to-end before the next
// one; a failure never stops the batch.
func (s *Service) CheckReferences(ctx context.Context, refs []string, opts Options) *types.CheckResult {
	start := time.Now()
	result := &types.CheckResult{CheckedAt: start.UTC()}

	for _, raw := range refs {
		image, err := reference.Parse(raw)
		if err != nil {
			s.logger.Error("Failed to parse reference", "reference", raw, "error", err)
			result.Reports = append(result.Reports, types.ReferenceReport{
				Reference:  raw,
				UpdateType: types.UpdateTypeUnknown,
				Error:      err.Error(),
				CheckedAt:  time.Now().UTC(),
			})
			continue
		}
		result.Reports = append(result.Reports, s.checkImage(ctx, raw, image, opts))
	}

	result.Duration = time.Since(start)
	return result
}

// CheckImages checks images already parsed from compose files or running
// containers.
func (s *Service) CheckImages(ctx context.Context, images []types.ImageReference, opts Options) *types.CheckResult {
	start := time.Now()
	result := &types.CheckResult{CheckedAt: start.UTC()}

	for _, image := range images {
		result.Reports = append(result.Reports, s.checkImage(ctx, image.String(), image, opts))
	}

	result.Duration = time.Since(start)
	return result
}

// checkImage runs the full pipeline for one image: parse the current tag,
// list the published tags and resolve which ones are newer
func (s *Service) checkImage(ctx context.Context, raw string, image types.ImageReference, opts Options) types.ReferenceReport {
	report := types.ReferenceReport{
		Reference:  raw,
		Image:      image,
		UpdateType: types.UpdateTypeNone,
		CheckedAt:  time.Now().UTC(),
	}

	s.logger.Info("Checking image", "image", image.String(), "registry", image.Registry)

	current, err := version.Parse(image.Tag)
	if err != nil {
		s.logger.Error("Current tag has no version shape", "image", image.String(), "tag", image.Tag, "error", err)
		report.UpdateType = types.UpdateTypeUnknown
		report.Error = err.Error()
		return report
	}

	tags, err := s.lister.ListTags(ctx, image)
	if err != nil {
		s.logger.Error("Failed to list tags", "image", image.String(), "error", err)
		report.UpdateType = types.UpdateTypeUnknown
		report.Error = err.Error()
		return report
	}

	newer := version.Resolve(current, tags, s.logger)

	if opts.Constraint != "" {
		newer, err = version.FilterConstraint(newer, opts.Constraint)
		if err != nil {
			s.logger.Error("Invalid version constraint", "constraint", opts.Constraint, "error", err)
			report.UpdateType = types.UpdateTypeUnknown
			report.Error = err.Error()
			return report
		}
	}

	if len(newer) == 0 {
		s.logger.Info("Image is up to date", "image", image.String())
		return report
	}

	report.NewerTags = make([]string, len(newer))
	for i, v := range newer {
		report.NewerTags[i] = v.Original
	}
	latest := newer[len(newer)-1]
	report.LatestTag = latest.Original
	report.UpdateType = version.Diff(current, latest)

	s.logger.Info("Newer image versions available",
		"image", image.String(),
		"current", image.Tag,
		"latest", report.LatestTag,
		"count", len(newer))

	return report
}
