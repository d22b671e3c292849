package coreimage

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"corecatalog/db"
)

// remoteKeyPrefix keeps the default remote's key non-empty; bbolt rejects empty keys
const remoteKeyPrefix = "remote/"

// ManifestRepositoryImpl implements ManifestRepository using BoltDB
type ManifestRepositoryImpl struct {
	*db.GenericRepository[ManifestSnapshot]
}

// NewManifestRepository creates a new manifest snapshot repository
func NewManifestRepository(database db.Database, bucket string) ManifestRepository {
	return &ManifestRepositoryImpl{
		GenericRepository: db.NewGenericRepository[ManifestSnapshot](database, bucket),
	}
}

// Save stores the snapshot under its remote
func (r *ManifestRepositoryImpl) Save(ctx context.Context, snapshot *ManifestSnapshot) error {
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now()
	}
	return r.GenericRepository.Save(ctx, remoteKeyPrefix+snapshot.Remote, *snapshot)
}

// GetAll retrieves every snapshot ordered by remote
func (r *ManifestRepositoryImpl) GetAll(ctx context.Context) ([]*ManifestSnapshot, error) {
	snapshotMap, err := r.GenericRepository.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*ManifestSnapshot, 0, len(snapshotMap))
	for _, snapshot := range snapshotMap {
		snapshotCopy := snapshot
		snapshots = append(snapshots, &snapshotCopy)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Remote < snapshots[j].Remote
	})

	return snapshots, nil
}

// FailureRepositoryImpl implements FailureRepository using BoltDB
type FailureRepositoryImpl struct {
	*db.GenericRepository[FailureEvent]
}

// NewFailureRepository creates a new failure event repository
func NewFailureRepository(database db.Database, bucket string) FailureRepository {
	return &FailureRepositoryImpl{
		GenericRepository: db.NewGenericRepository[FailureEvent](database, bucket),
	}
}

// Save stores a failure event, assigning an ID and timestamp when missing
func (r *FailureRepositoryImpl) Save(ctx context.Context, event *FailureEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	return r.GenericRepository.Save(ctx, event.ID, *event)
}

// GetAll retrieves every failure event, oldest first
func (r *FailureRepositoryImpl) GetAll(ctx context.Context) ([]*FailureEvent, error) {
	eventMap, err := r.GenericRepository.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]*FailureEvent, 0, len(eventMap))
	for _, event := range eventMap {
		eventCopy := event
		events = append(events, &eventCopy)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})

	return events, nil
}
