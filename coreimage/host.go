package coreimage

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	digest "github.com/opencontainers/go-digest"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "corecatalog/internal/errors"
)

// Host serves the core image catalog of one architecture. Manifests are
// built outside the lock and installed with a single map write, so readers
// see either the previous manifest or the complete new one.
type Host struct {
	arch      string
	table     Table
	fetcher   ContentFetcher
	validator RemoteValidator
	sink      FailureSink
	repo      ManifestRepository
	logger    *zap.Logger
	ttl       time.Duration
	remotes   []string
	now       func() time.Time

	buildTimeout time.Duration
	base         context.Context
	stop         context.CancelFunc
	builds       sync.WaitGroup

	mu         sync.Mutex
	manifests  map[string]*Manifest
	lastUpdate time.Time
	closed     bool

	// persistMu orders snapshot writes against Clear. Lock before mu.
	persistMu sync.Mutex

	flight singleflight.Group
}

// defaultBuildTimeout bounds one manifest build
const defaultBuildTimeout = 5 * time.Minute

var _ ImageHost = (*Host)(nil)

// HostOption configures optional Host behavior
type HostOption func(*Host)

// WithManifestRepository persists installed manifests and enables Restore
func WithManifestRepository(repo ManifestRepository) HostOption {
	return func(h *Host) {
		h.repo = repo
	}
}

// WithManifestTTL sets how long a refresh stays fresh for UpdateManifests
func WithManifestTTL(ttl time.Duration) HostOption {
	return func(h *Host) {
		h.ttl = ttl
	}
}

// WithBuildTimeout bounds a single manifest build
func WithBuildTimeout(timeout time.Duration) HostOption {
	return func(h *Host) {
		h.buildTimeout = timeout
	}
}

// WithRemotes overrides the configured remote list
func WithRemotes(remotes ...string) HostOption {
	return func(h *Host) {
		h.remotes = append([]string(nil), remotes...)
	}
}

// NewHost creates a core image host for arch serving the given table
func NewHost(arch string, table Table, fetcher ContentFetcher, validator RemoteValidator, sink FailureSink, logger *zap.Logger, opts ...HostOption) *Host {
	h := &Host{
		arch:      arch,
		table:     table,
		fetcher:   fetcher,
		validator: validator,
		sink:      sink,
		logger:    logger,
		remotes:   []string{DefaultRemote},
		now:       time.Now,
		manifests: make(map[string]*Manifest),

		buildTimeout: defaultBuildTimeout,
	}
	h.base, h.stop = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Arch returns the architecture this host serves
func (h *Host) Arch() string {
	return h.arch
}

// Refresh rebuilds the manifest of every configured remote. Unsupported
// remotes are skipped; a failed build is reported to the FailureSink and
// leaves that remote's cached manifest untouched. Builds run on the host's
// own context: when ctx is done Refresh stops waiting, but the build
// carries on for any other caller sharing it.
func (h *Host) Refresh(ctx context.Context) {
	for _, remote := range h.remotes {
		if err := h.validator.CheckRemoteSupported(remote); err != nil {
			h.logger.Debug("Skipping unsupported remote",
				zap.String("remote", remote),
				zap.Error(err))
			continue
		}

		// Concurrent refreshes of one remote share a single build.
		done := h.flight.DoChan(remote, func() (interface{}, error) {
			h.refreshRemote(remote)
			return nil, nil
		})

		select {
		case <-done:
		case <-ctx.Done():
			h.logger.Debug("Stopped waiting for manifest build",
				zap.String("remote", remote),
				zap.Error(ctx.Err()))
			return
		}
	}
}

func (h *Host) refreshRemote(remote string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.builds.Add(1)
	h.mu.Unlock()
	defer h.builds.Done()

	ctx, cancel := context.WithTimeout(h.base, h.buildTimeout)
	defer cancel()
	start := h.now()

	manifest, err := BuildManifest(ctx, h.table, h.fetcher)
	if err != nil {
		if h.base.Err() != nil {
			h.logger.Debug("Manifest build abandoned", zap.String("remote", remote))
			return
		}
		h.logger.Warn("Manifest update failed",
			zap.String("remote", remote),
			zap.String("arch", h.arch),
			zap.Error(err))
		h.sink.OnManifestUpdateFailure(err.Error())
		return
	}

	h.install(ctx, remote, manifest)

	h.logger.Info("Manifest updated",
		zap.String("remote", remote),
		zap.String("arch", h.arch),
		zap.Int("images", manifest.Len()),
		zap.Duration("took", h.now().Sub(start)))
}

// install publishes manifest and persists its snapshot before a concurrent
// Clear can run, so a cleared cache is never written back.
func (h *Host) install(ctx context.Context, remote string, manifest *Manifest) {
	h.persistMu.Lock()
	defer h.persistMu.Unlock()

	h.mu.Lock()
	h.manifests[remote] = manifest
	h.lastUpdate = h.now()
	h.mu.Unlock()

	if h.repo == nil {
		return
	}
	snapshot := &ManifestSnapshot{
		Remote:    remote,
		Products:  manifest.Products(),
		UpdatedAt: h.now(),
	}
	if err := h.repo.Save(ctx, snapshot); err != nil {
		h.logger.Warn("Failed to persist manifest snapshot",
			zap.String("remote", remote),
			zap.Error(err))
	}
}

// Close abandons in-flight builds without notifying the FailureSink and
// waits for them to return. Later refreshes do nothing.
func (h *Host) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.stop()
	h.builds.Wait()
}

// UpdateManifests refreshes when forced or when the last successful
// refresh is older than the manifest TTL.
func (h *Host) UpdateManifests(ctx context.Context, force bool) {
	h.mu.Lock()
	stale := h.lastUpdate.IsZero() || h.now().Sub(h.lastUpdate) >= h.ttl
	h.mu.Unlock()

	if force || stale {
		h.Refresh(ctx)
	}
}

// Restore primes the cache from persisted snapshots. Remotes that already
// hold a manifest, or are no longer configured, are left alone.
func (h *Host) Restore(ctx context.Context) error {
	if h.repo == nil {
		return nil
	}

	snapshots, err := h.repo.GetAll(ctx)
	if err != nil {
		return apperrors.NewDatabaseError("restore manifests", err)
	}

	restored := 0
	h.mu.Lock()
	for _, snapshot := range snapshots {
		if !h.isConfigured(snapshot.Remote) {
			continue
		}
		if _, exists := h.manifests[snapshot.Remote]; exists {
			continue
		}

		slots := make([]*ImageRecord, len(snapshot.Products))
		for i := range snapshot.Products {
			slots[i] = &snapshot.Products[i]
		}
		h.manifests[snapshot.Remote] = NewManifest(slots)
		restored++
	}
	h.mu.Unlock()

	h.logger.Info("Restored manifest snapshots", zap.Int("remotes", restored))
	return nil
}

// Clear drops every cached manifest and its persisted snapshot
func (h *Host) Clear() {
	h.persistMu.Lock()
	defer h.persistMu.Unlock()

	h.mu.Lock()
	h.manifests = make(map[string]*Manifest)
	h.lastUpdate = time.Time{}
	h.mu.Unlock()

	if h.repo == nil {
		return
	}
	if err := h.repo.DeleteAll(context.Background()); err != nil {
		h.logger.Warn("Failed to clear manifest snapshots", zap.Error(err))
	}
}

// Lookup returns the record whose identifier or alias is releaseOrAlias.
// A nil record with a nil error means the manifest has no such key.
func (h *Host) Lookup(releaseOrAlias, remote string) (*ImageRecord, error) {
	if err := h.validator.CheckAliasSupported(releaseOrAlias, remote); err != nil {
		return nil, unsupported("check alias", err)
	}

	manifest, err := h.manifestFrom(remote)
	if err != nil {
		return nil, err
	}

	record, ok := manifest.Lookup(releaseOrAlias)
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// AllInfoFor returns the matching record paired with its remote, if any
func (h *Host) AllInfoFor(releaseOrAlias, remote string) ([]RemoteRecord, error) {
	record, err := h.Lookup(releaseOrAlias, remote)
	if err != nil {
		return nil, err
	}

	images := []RemoteRecord{}
	if record != nil {
		images = append(images, RemoteRecord{Remote: remote, Record: *record})
	}
	return images, nil
}

// LookupByHash finds a cached record by its full hash. Both bare hex and
// "sha256:<hex>" forms are accepted.
func (h *Host) LookupByHash(hash string) (*ImageRecord, error) {
	if hash == "" {
		return nil, apperrors.NewValidationError("parse hash", fmt.Errorf("hash is required"))
	}

	d := digest.Digest(hash)
	if !strings.Contains(hash, ":") {
		d = digest.NewDigestFromEncoded(digest.SHA256, hash)
	}
	if err := d.Validate(); err != nil {
		return nil, apperrors.NewValidationError("parse hash", err)
	}
	hash = d.Encoded()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, remote := range h.sortedRemotes() {
		for _, product := range h.manifests[remote].products {
			if product.ID == hash {
				record := product.clone()
				return &record, nil
			}
		}
	}
	return nil, nil
}

// ListAll returns the records of remote in product order. Unless
// allowUnsupported is set, records whose aliases do not verify as
// supported are filtered out.
func (h *Host) ListAll(remote string, allowUnsupported bool) ([]ImageRecord, error) {
	manifest, err := h.manifestFrom(remote)
	if err != nil {
		return nil, err
	}

	images := []ImageRecord{}
	for _, product := range manifest.Products() {
		if allowUnsupported || h.validator.VerifyAliasSupported(product.Aliases, remote) {
			images = append(images, product)
		}
	}
	return images, nil
}

// ForEach calls action for every supported record of every cached remote,
// in remote name order then product order. The cache lock is held for the
// whole iteration, so action must not call back into the Host.
func (h *Host) ForEach(action func(remote string, record ImageRecord)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, remote := range h.sortedRemotes() {
		for _, product := range h.manifests[remote].products {
			if h.validator.VerifyAliasSupported(product.Aliases, remote) {
				action(remote, product.clone())
			}
		}
	}
}

// Remotes returns the configured remote names
func (h *Host) Remotes() []string {
	return append([]string(nil), h.remotes...)
}

// manifestFrom returns the cached manifest of remote. Manifests are never
// mutated after installation, so the pointer stays valid after the lock
// is released even if the entry is replaced.
func (h *Host) manifestFrom(remote string) (*Manifest, error) {
	if err := h.validator.CheckRemoteSupported(remote); err != nil {
		return nil, unsupported("check remote", err)
	}

	h.mu.Lock()
	manifest, ok := h.manifests[remote]
	h.mu.Unlock()

	if !ok {
		return nil, apperrors.NewUnknownRemoteError(remote)
	}
	return manifest, nil
}

// sortedRemotes must be called with h.mu held
func (h *Host) sortedRemotes() []string {
	names := make([]string, 0, len(h.manifests))
	for name := range h.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Host) isConfigured(remote string) bool {
	for _, r := range h.remotes {
		if r == remote {
			return true
		}
	}
	return false
}

func unsupported(op string, err error) error {
	var appErr *apperrors.AppError
	if apperrors.IsAppError(err, &appErr) {
		return err
	}
	return apperrors.NewUnsupportedRemoteError(op, err)
}
