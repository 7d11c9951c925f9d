package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/lib/pq"
)

// VersionRecord is everything the read API needs to render a Manifest
// response or resolve a download key for one published version.
type VersionRecord struct {
	Namespace    string
	Name         string
	Version      string
	Description  string
	Category     *string
	SHA256       string
	StoragePath  string
	SigPath      string
	SignerKind   string
	CertChainPEM []string
	YankedAt     sql.NullTime
}

// GetVersion loads the published version (namespace, name, version),
// the join behind GET /v1/packages/{ns}/{name}/{version}.
func (db *DB) GetVersion(ctx context.Context, namespace, name, version string) (VersionRecord, error) {
	var rec VersionRecord
	var certChain pq.StringArray
	err := db.sql.QueryRowContext(ctx, `
		SELECT n.slug, p.name, v.version, p.description, p.category,
		       v.sha256, v.storage_path, v.sig_path, v.signer_kind, v.cert_chain_pem, v.yanked_at
		FROM versions v
		JOIN packages p ON p.id = v.package_id
		JOIN namespaces n ON n.id = p.namespace_id
		WHERE n.slug = $1 AND p.name = $2 AND v.version = $3
	`, namespace, name, version).Scan(
		&rec.Namespace, &rec.Name, &rec.Version, &rec.Description, &rec.Category,
		&rec.SHA256, &rec.StoragePath, &rec.SigPath, &rec.SignerKind, &certChain, &rec.YankedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return VersionRecord{}, ErrNotFound
	}
	if err != nil {
		return VersionRecord{}, fmt.Errorf("datastore: fetching version %s/%s@%s: %w", namespace, name, version, err)
	}
	rec.CertChainPEM = []string(certChain)
	return rec, nil
}

// GetLatestVersion resolves (namespace, name, "latest") to the highest
// semver version published under that package, the join behind
// GET /v1/packages/{ns}/{name}/latest.
//
// Versions are compared with semver precedence rather than lexicographic
// or insertion order, since plain string comparison would wrongly rank
// "1.9.0" above "1.10.0".
func (db *DB) GetLatestVersion(ctx context.Context, namespace, name string) (VersionRecord, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT n.slug, p.name, v.version, p.description, p.category,
		       v.sha256, v.storage_path, v.sig_path, v.signer_kind, v.cert_chain_pem, v.yanked_at
		FROM versions v
		JOIN packages p ON p.id = v.package_id
		JOIN namespaces n ON n.id = p.namespace_id
		WHERE n.slug = $1 AND p.name = $2
	`, namespace, name)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("datastore: listing versions for %s/%s: %w", namespace, name, err)
	}
	defer rows.Close()

	var records []VersionRecord
	for rows.Next() {
		var rec VersionRecord
		var certChain pq.StringArray
		if err := rows.Scan(
			&rec.Namespace, &rec.Name, &rec.Version, &rec.Description, &rec.Category,
			&rec.SHA256, &rec.StoragePath, &rec.SigPath, &rec.SignerKind, &certChain, &rec.YankedAt,
		); err != nil {
			return VersionRecord{}, fmt.Errorf("datastore: scanning version row: %w", err)
		}
		rec.CertChainPEM = []string(certChain)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return VersionRecord{}, err
	}
	if len(records) == 0 {
		return VersionRecord{}, ErrNotFound
	}

	sort.Slice(records, func(i, j int) bool {
		vi, erri := semver.NewVersion(records[i].Version)
		vj, errj := semver.NewVersion(records[j].Version)
		if erri != nil || errj != nil {
			return records[i].Version < records[j].Version
		}
		return vi.LessThan(vj)
	})
	return records[len(records)-1], nil
}
