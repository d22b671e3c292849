package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ErrorType represents different categories of catalog errors
type ErrorType int

const (
	ValidationError ErrorType = iota
	DatabaseError
	TransportError
	UnsupportedRemoteError
	UnknownRemoteError
	ConfigurationError
)

// Sentinels matched through AppError.Is so callers can use errors.Is
var (
	ErrUnsupportedRemote = stderrors.New("unsupported remote")
	ErrTransport         = stderrors.New("transport failure")
	ErrUnknownRemote     = stderrors.New("unknown or unreachable remote")
)

// AppError represents application-specific errors with context
type AppError struct {
	Type    ErrorType
	Op      string                 // Operation that failed
	Err     error                  // Original error
	Message string                 // User-friendly message
	Code    int                    // HTTP status code
	Context map[string]interface{} // Additional context
}

func (e *AppError) Error() string {
	if e.Op != "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether the error belongs to the category of target
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrUnsupportedRemote:
		return e.Type == UnsupportedRemoteError
	case ErrTransport:
		return e.Type == TransportError
	case ErrUnknownRemote:
		return e.Type == UnknownRemoteError
	}
	return false
}

// String returns the error type as a string for logging
func (et ErrorType) String() string {
	switch et {
	case ValidationError:
		return "validation"
	case DatabaseError:
		return "database"
	case TransportError:
		return "transport"
	case UnsupportedRemoteError:
		return "unsupported_remote"
	case UnknownRemoteError:
		return "unknown_remote"
	case ConfigurationError:
		return "configuration"
	default:
		return "unknown"
	}
}

// NewValidationError creates a new validation error
func NewValidationError(op string, err error) *AppError {
	return &AppError{
		Type:    ValidationError,
		Op:      op,
		Err:     err,
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(op string, err error) *AppError {
	return &AppError{
		Type:    DatabaseError,
		Op:      op,
		Err:     err,
		Message: "Database operation failed",
		Code:    http.StatusInternalServerError,
	}
}

// NewTransportError creates a new error for a failed network read
func NewTransportError(op string, err error) *AppError {
	return &AppError{
		Type:    TransportError,
		Op:      op,
		Err:     err,
		Message: "Network operation failed",
		Code:    http.StatusServiceUnavailable,
	}
}

// NewUnsupportedRemoteError creates an error for a remote or alias the validator rejects
func NewUnsupportedRemoteError(op string, err error) *AppError {
	return &AppError{
		Type:    UnsupportedRemoteError,
		Op:      op,
		Err:     err,
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	}
}

// NewUnknownRemoteError creates the error returned when a remote has no cached manifest
func NewUnknownRemoteError(remote string) *AppError {
	msg := fmt.Sprintf("Remote %q is unknown or unreachable.", remote)
	return &AppError{
		Type:    UnknownRemoteError,
		Err:     stderrors.New(msg),
		Message: msg,
		Code:    http.StatusNotFound,
	}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(op string, err error) *AppError {
	return &AppError{
		Type:    ConfigurationError,
		Op:      op,
		Err:     err,
		Message: "Configuration error",
		Code:    http.StatusInternalServerError,
	}
}

// WithContext adds context to an existing AppError
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogError logs an AppError with appropriate context
func LogError(logger *zap.Logger, err *AppError) {
	fields := []zap.Field{
		zap.String("type", err.Type.String()),
		zap.String("operation", err.Op),
		zap.Int("code", err.Code),
		zap.Error(err.Err),
	}

	for k, v := range err.Context {
		fields = append(fields, zap.Any(k, v))
	}

	logger.Error(err.Message, fields...)
}

// HandleHTTPError sends appropriate HTTP error response and logs the error
func HandleHTTPError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *AppError

	if IsAppError(err, &appErr) {
		LogError(logger, appErr)
		http.Error(w, appErr.Message, appErr.Code)
		return
	}

	logger.Error("Unhandled error", zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// IsAppError checks if an error is an AppError and extracts it
func IsAppError(err error, target **AppError) bool {
	return stderrors.As(err, target)
}

// Wrap wraps an error with additional context
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if IsAppError(err, &appErr) {
		fullOp := op
		if appErr.Op != "" {
			fullOp = op + " -> " + appErr.Op
		}
		return &AppError{
			Type:    appErr.Type,
			Op:      fullOp,
			Err:     appErr.Err,
			Message: appErr.Message,
			Code:    appErr.Code,
			Context: appErr.Context,
		}
	}

	return &AppError{
		Type:    ValidationError,
		Op:      op,
		Err:     err,
		Message: "Operation failed",
		Code:    http.StatusInternalServerError,
	}
}
