// Package manifest defines the JSON metadata document embedded at the root
// of every .skill artifact, alongside SKILL.md.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Manifest is the JSON metadata document embedded in a .skill artifact.
//
// The Sha256 field is self-referential: it is the hex SHA-256 of the
// artifact bytes that contain this very manifest. See skillpkg.Pack for how
// the two-pass build resolves that cycle.
type Manifest struct {
	Namespace     string   `json:"namespace"`
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Description   string   `json:"description"`
	Category      string   `json:"category,omitempty"`
	Sha256        string   `json:"sha256"`
	CertChainPEM  []string `json:"cert_chain_pem"`
}

// MinDescriptionLen is the minimum trimmed length of a manifest
// description, enforced both at publish time and by Stage 2.
const MinDescriptionLen = 20

// Parse decodes raw JSON bytes into a Manifest without running semantic
// validation; call ValidateShape separately once the rest of the artifact
// context (namespace, digest) is known.
func Parse(raw []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest.json: %w", err)
	}
	return m, nil
}

// Encode serializes m back to indented JSON, matching the shape written by
// the packer.
func (m Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ValidateShape checks the field that doesn't depend on external context: a
// trimmed description of at least 20 characters. The sha256 field's format
// is not checked here. Namespace/name slug validity and sha256-vs-bytes
// agreement are checked by callers that have that context (admission handler).
func (m Manifest) ValidateShape() error {
	if len(strings.TrimSpace(m.Description)) < MinDescriptionLen {
		return fmt.Errorf("description is too short (minimum %d characters)", MinDescriptionLen)
	}
	return nil
}
