// Package refs implements the validated domain newtypes the registry uses
// for namespace slugs, package names, content digests, semver versions, and
// fully-qualified package references.
package refs

import (
	"fmt"
	"strings"
)

const maxSlugLen = 64

// Slug is a validated namespace or package-name component: non-empty, at
// most 64 characters, charset [a-z0-9-].
type Slug string

// NewSlug validates s and returns it as a Slug.
func NewSlug(s string) (Slug, error) {
	if s == "" {
		return "", fmt.Errorf("slug must not be empty")
	}
	if len(s) > maxSlugLen {
		return "", fmt.Errorf("slug exceeds maximum length of %d characters (got %d)", maxSlugLen, len(s))
	}
	for _, c := range s {
		if !isSlugChar(c) {
			return "", fmt.Errorf("slug %q contains invalid characters: only lowercase alphanumeric and hyphens allowed", s)
		}
	}
	return Slug(s), nil
}

func isSlugChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-'
}

func (s Slug) String() string { return string(s) }

// Namespace is a publisher-scoped slug.
type Namespace = Slug

// PackageName is a package-scoped slug, same constraints as Namespace.
type PackageName = Slug

// Digest is a validated SHA-256 hex digest: exactly 64 lowercase hex
// characters.
type Digest string

// ParseDigest validates hex and returns it lowercase-normalized.
func ParseDigest(hex string) (Digest, error) {
	if len(hex) != 64 {
		return "", fmt.Errorf("expected 64 hex characters, got %d", len(hex))
	}
	lower := strings.ToLower(hex)
	for _, c := range lower {
		if !isHexChar(c) {
			return "", fmt.Errorf("digest contains non-hex characters")
		}
	}
	return Digest(lower), nil
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

func (d Digest) String() string { return string(d) }
