package refs

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version wraps a strictly-parsed semantic version.
type Version struct {
	v *semver.Version
}

// ParseVersion parses s as strict semver.
func ParseVersion(s string) (Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid semver version: %w", err)
	}
	return Version{v: v}, nil
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// IsZero reports whether v was never assigned by ParseVersion.
func (v Version) IsZero() bool { return v.v == nil }
