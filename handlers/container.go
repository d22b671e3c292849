package handlers

import (
	"context"

	"go.uber.org/zap"

	"corecatalog/config"
	"corecatalog/coreimage"
)

// FailureLister lists recorded manifest update failures
type FailureLister interface {
	Recent(ctx context.Context, limit int) ([]*coreimage.FailureEvent, error)
}

// Container holds dependencies for handlers
type Container struct {
	Host     coreimage.ImageHost
	Failures FailureLister
	Config   *config.Config
	Logger   *zap.Logger
}
