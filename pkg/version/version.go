package version

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

// Variant names that mark a tag as a pre-release. Matched as whole words so
// variants like "alpine", "rc1" or "prepared" do not trip the filter.
var preReleaseRegex = regexp.MustCompile(`\b(alpha|beta|rc|pre|next|canary)\b`)

// Version is a parsed image tag: three numeric components plus an optional
// variant taken from after the first hyphen ("1.25.3-alpine" -> 1.25.3 / "alpine").
type Version struct {
	Major   int
	Minor   int
	Patch   int
	Variant string

	// Original is the tag exactly as published, kept for display and reporting
	Original string
}

// Parse parses an image tag into a Version. The tag must carry exactly three
// dot-separated numeric components before the first hyphen; anything else
// (names, dates with two parts, four-part builds) is rejected with
// ErrInvalidVersionFormat.
func Parse(tag string) (Version, error) {
	versionPart := tag
	variant := ""
	if idx := strings.Index(tag, "-"); idx >= 0 {
		versionPart = tag[:idx]
		variant = tag[idx+1:]
	}

	parts := strings.Split(versionPart, ".")
	if len(parts) != 3 {
		return Version{}, errors.Wrapf("version.Parse", errors.ErrInvalidVersionFormat,
			"tag %q has %d version components, want 3", tag, len(parts))
	}

	// Tags like "v1.2.3" carry the prefix on the first component only
	parts[0] = strings.ReplaceAll(parts[0], "v", "")

	numbers := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, errors.Wrapf("version.Parse", errors.ErrInvalidVersionFormat,
				"tag %q has non-numeric component %q", tag, part)
		}
		numbers[i] = n
	}

	return Version{
		Major:    numbers[0],
		Minor:    numbers[1],
		Patch:    numbers[2],
		Variant:  variant,
		Original: tag,
	}, nil
}

// IsPrerelease reports whether the variant marks this version as a pre-release.
// The match is case sensitive, mirroring how registries publish these tags.
func (v Version) IsPrerelease() bool {
	if v.Variant == "" {
		return false
	}
	return preReleaseRegex.MatchString(v.Variant)
}

// Compare orders versions by their numeric components only. Variants never
// participate, so "1.25.3-alpine" and "1.25.3-slim" compare as equal.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return compareInt(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return compareInt(v.Minor, other.Minor)
	}
	return compareInt(v.Patch, other.Patch)
}

// Equal reports whether both versions share the same numeric components.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// GreaterThan reports whether v is strictly newer than other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// LessThan reports whether v is strictly older than other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// String returns the tag as originally published.
func (v Version) String() string {
	return v.Original
}

// Diff classifies the jump from current to latest as a major, minor or patch
// update. Returns UpdateTypeNone when latest is not newer.
func Diff(current, latest Version) types.UpdateType {
	if latest.Compare(current) <= 0 {
		return types.UpdateTypeNone
	}
	if latest.Major > current.Major {
		return types.UpdateTypeMajor
	}
	if latest.Minor > current.Minor {
		return types.UpdateTypeMinor
	}
	return types.UpdateTypePatch
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
