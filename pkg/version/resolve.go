package version

import (
	"log/slog"
	"sort"

	semver "github.com/Masterminds/semver/v3"

	"github.com/user/image-update-checker/pkg/errors"
)

// Resolve returns the candidate tags strictly newer than current, pre-releases
// excluded, sorted in ascending order. Candidates that do not parse as
// versions (named tags, dates, build ids) are skipped with a debug log.
func Resolve(current Version, candidates []string, logger *slog.Logger) []Version {
	if logger == nil {
		logger = slog.Default()
	}

	var newer []Version
	for _, tag := range candidates {
		v, err := Parse(tag)
		if err != nil {
			logger.Debug("Skipping tag without version shape", "tag", tag)
			continue
		}
		if !v.GreaterThan(current) {
			continue
		}
		if v.IsPrerelease() {
			logger.Debug("Skipping pre-release tag", "tag", tag)
			continue
		}
		newer = append(newer, v)
	}

	// Stable sort keeps the first-seen tag ahead of later candidates that
	// share the same numeric version
	sort.SliceStable(newer, func(i, j int) bool {
		return newer[i].LessThan(newer[j])
	})

	return newer
}

// ValidateConstraint checks that the expression is a valid semver range.
func ValidateConstraint(constraint string) error {
	if constraint == "" {
		return nil
	}
	_, err := semver.NewConstraint(constraint)
	return errors.Wrapf("version.ValidateConstraint", err, "parsing constraint %q", constraint)
}

// FilterConstraint keeps only the versions allowed by a semver range
// expression such as "< 2.0.0" or ">= 1.25, < 1.27". An empty constraint
// keeps everything.
func FilterConstraint(versions []Version, constraint string) ([]Version, error) {
	if constraint == "" {
		return versions, nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, errors.Wrapf("version.FilterConstraint", err, "parsing constraint %q", constraint)
	}

	var filtered []Version
	for _, v := range versions {
		sv := semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
		if c.Check(sv) {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}
