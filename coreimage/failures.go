package coreimage

import (
	"context"

	"go.uber.org/zap"
)

// FailureRecorder is the FailureSink that logs manifest update failures
// and keeps them for later inspection.
type FailureRecorder struct {
	repo   FailureRepository
	logger *zap.Logger
}

// NewFailureRecorder creates a recorder; repo may be nil to only log
func NewFailureRecorder(repo FailureRepository, logger *zap.Logger) *FailureRecorder {
	return &FailureRecorder{
		repo:   repo,
		logger: logger,
	}
}

// OnManifestUpdateFailure implements FailureSink
func (r *FailureRecorder) OnManifestUpdateFailure(message string) {
	r.logger.Error("Core image manifest update failed", zap.String("message", message))

	if r.repo == nil {
		return
	}
	if err := r.repo.Save(context.Background(), &FailureEvent{Message: message}); err != nil {
		r.logger.Warn("Failed to record manifest update failure", zap.Error(err))
	}
}

// Recent returns up to limit of the most recent failures, newest first.
// A limit of zero or less returns every recorded failure.
func (r *FailureRecorder) Recent(ctx context.Context, limit int) ([]*FailureEvent, error) {
	if r.repo == nil {
		return []*FailureEvent{}, nil
	}

	events, err := r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	recent := make([]*FailureEvent, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		recent = append(recent, events[i])
		if limit > 0 && len(recent) == limit {
			break
		}
	}
	return recent, nil
}
