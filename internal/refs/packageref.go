package refs

import (
	"fmt"
	"strings"
)

// PackageRef is a fully-qualified package reference of the form
// "namespace/name[@version]". A nil Version means "latest".
type PackageRef struct {
	Namespace Namespace
	Name      PackageName
	Version   *Version
}

// ParsePackageRef parses input in the form "ns/name[@version]".
func ParsePackageRef(input string) (PackageRef, error) {
	nsName, versionStr, hasVersion := strings.Cut(input, "@")

	nsStr, nameStr, ok := strings.Cut(nsName, "/")
	if !ok {
		return PackageRef{}, fmt.Errorf("package reference must be in the form 'namespace/name[@version]'")
	}

	ns, err := NewSlug(nsStr)
	if err != nil {
		return PackageRef{}, fmt.Errorf("invalid namespace: %w", err)
	}
	name, err := NewSlug(nameStr)
	if err != nil {
		return PackageRef{}, fmt.Errorf("invalid name: %w", err)
	}

	ref := PackageRef{Namespace: ns, Name: name}
	if hasVersion {
		v, err := ParseVersion(versionStr)
		if err != nil {
			return PackageRef{}, err
		}
		ref.Version = &v
	}
	return ref, nil
}

func (r PackageRef) String() string {
	s := fmt.Sprintf("%s/%s", r.Namespace, r.Name)
	if r.Version != nil {
		s += "@" + r.Version.String()
	}
	return s
}

// VersionOrLatest returns the pinned version string, or "latest" if unset.
func (r PackageRef) VersionOrLatest() string {
	if r.Version == nil {
		return "latest"
	}
	return r.Version.String()
}
