package coreimage

import (
	"context"
	"time"
)

// ContentFetcher reads from the remote file server
type ContentFetcher interface {
	// LastModified returns the modification time of the resource at url
	LastModified(ctx context.Context, url string) (time.Time, error)

	// Download returns the body of the resource at url
	Download(ctx context.Context, url string) ([]byte, error)
}

// RemoteValidator decides which remotes and aliases may be served
type RemoteValidator interface {
	// CheckRemoteSupported fails if the remote is not a recognized configuration
	CheckRemoteSupported(remote string) error

	// CheckAliasSupported fails if the alias may not be used with the remote
	CheckAliasSupported(alias, remote string) error

	// VerifyAliasSupported reports whether a record with these aliases may be listed
	VerifyAliasSupported(aliases []string, remote string) bool
}

// FailureSink receives manifest update failures
type FailureSink interface {
	OnManifestUpdateFailure(message string)
}

// ManifestRepository persists built manifests
type ManifestRepository interface {
	// Save stores the snapshot for its remote, replacing any previous one
	Save(ctx context.Context, snapshot *ManifestSnapshot) error

	// GetAll retrieves every stored snapshot
	GetAll(ctx context.Context) ([]*ManifestSnapshot, error)

	// DeleteAll removes every stored snapshot
	DeleteAll(ctx context.Context) error
}

// FailureRepository persists manifest update failures
type FailureRepository interface {
	Save(ctx context.Context, event *FailureEvent) error
	GetAll(ctx context.Context) ([]*FailureEvent, error)
}

// ImageHost is the query and refresh surface of the core image catalog
type ImageHost interface {
	Arch() string
	Refresh(ctx context.Context)
	UpdateManifests(ctx context.Context, force bool)
	Restore(ctx context.Context) error
	Clear()
	Lookup(releaseOrAlias, remote string) (*ImageRecord, error)
	AllInfoFor(releaseOrAlias, remote string) ([]RemoteRecord, error)
	LookupByHash(hash string) (*ImageRecord, error)
	ListAll(remote string, allowUnsupported bool) ([]ImageRecord, error)
	ForEach(action func(remote string, record ImageRecord))
	Remotes() []string
}
