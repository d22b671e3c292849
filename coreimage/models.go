package coreimage

import (
	"sort"
	"time"

	digest "github.com/opencontainers/go-digest"
)

// DefaultRemote is the unnamed remote served by the core image host
const DefaultRemote = ""

// HashListFile is the checksum list published next to every image file
const HashListFile = "SHA256SUMS"

// ImageFileSpec is the hand-maintained description of one image file
type ImageFileSpec struct {
	URLPrefix    string   `json:"url_prefix" yaml:"url_prefix"`
	Aliases      []string `json:"aliases" yaml:"aliases"`
	OS           string   `json:"os" yaml:"os"`
	Release      string   `json:"release" yaml:"release"`
	ReleaseTitle string   `json:"release_title" yaml:"release_title"`
}

// Table maps image file names to their specs for one architecture
type Table map[string]ImageFileSpec

// FileNames returns the table keys in iteration order (ascending)
func (t Table) FileNames() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog maps an architecture to its image table
type Catalog map[string]Table

// TableFor returns the table for arch, or an empty table
func (c Catalog) TableFor(arch string) Table {
	if table, ok := c[arch]; ok {
		return table
	}
	return Table{}
}

// FreshnessInfo is the per-file metadata fetched from the file server
type FreshnessInfo struct {
	LastModified string // YYYYMMDD
	Hash         string // hex, empty when the checksum list has no entry
}

// ImageRecord is one resolved core image variant
type ImageRecord struct {
	Aliases      []string `json:"aliases"`
	OS           string   `json:"os"`
	Release      string   `json:"release"`
	ReleaseTitle string   `json:"release_title"`
	Supported    bool     `json:"supported"`
	Location     string   `json:"location"`
	ID           string   `json:"id"`
	Stream       string   `json:"stream"`
	Version      string   `json:"version"`
	Size         int64    `json:"size"`
	IsCoreImage  bool     `json:"is_core_image"`
}

// Digest returns the record hash as a sha256 digest, or "" when the
// checksum list did not publish one.
func (r ImageRecord) Digest() digest.Digest {
	if r.ID == "" {
		return ""
	}
	return digest.NewDigestFromEncoded(digest.SHA256, r.ID)
}

func (r ImageRecord) clone() ImageRecord {
	c := r
	c.Aliases = append([]string(nil), r.Aliases...)
	return c
}

// RemoteRecord pairs a record with the remote that serves it
type RemoteRecord struct {
	Remote string      `json:"remote"`
	Record ImageRecord `json:"record"`
}

// ManifestSnapshot is the persisted form of one remote's manifest
type ManifestSnapshot struct {
	Remote    string        `json:"remote"`
	Products  []ImageRecord `json:"products"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FailureEvent records one failed manifest update
type FailureEvent struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}
