package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents invalid caller input (empty file, short query)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents a missing document, job, or entity
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeBackend represents an unreachable backing service (graph database)
	ErrorTypeBackend ErrorType = "backend"
	// ErrorTypePipeline represents a job-level ingestion failure
	ErrorTypePipeline ErrorType = "pipeline"
	// ErrorTypeStore represents persistent store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// ErrValidation is returned when caller input fails validation
type ErrValidation struct {
	*BaseError
	Field string
}

func NewValidation(field, reason string) *ErrValidation {
	return &ErrValidation{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("%s: %s", field, reason), nil),
		Field:     field,
	}
}

// Not Found Errors

// ErrDocumentNotFound is returned when a document cannot be located
type ErrDocumentNotFound struct {
	*BaseError
	DocumentID string
}

func NewDocumentNotFound(documentID string) *ErrDocumentNotFound {
	return &ErrDocumentNotFound{
		BaseError:  NewBaseError(ErrorTypeNotFound, fmt.Sprintf("document not found: %s", documentID), nil),
		DocumentID: documentID,
	}
}

// ErrJobNotFound is returned when an ingest job cannot be located
type ErrJobNotFound struct {
	*BaseError
	JobID string
}

func NewJobNotFound(jobID string) *ErrJobNotFound {
	return &ErrJobNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("ingest job not found: %s", jobID), nil),
		JobID:     jobID,
	}
}

// ErrEntityNotFound is returned when a canonical entity is absent from a project
type ErrEntityNotFound struct {
	*BaseError
	ProjectID string
	Name      string
}

func NewEntityNotFound(projectID, name string) *ErrEntityNotFound {
	return &ErrEntityNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("entity not found: %s (project %s)", name, projectID), nil),
		ProjectID: projectID,
		Name:      name,
	}
}

// Backend Errors

// ErrBackendUnavailable is returned when the graph database is unreachable.
// It triggers the fallback backend and is never surfaced to callers.
type ErrBackendUnavailable struct {
	*BaseError
	Backend string
}

func NewBackendUnavailable(backend string, err error) *ErrBackendUnavailable {
	return &ErrBackendUnavailable{
		BaseError: NewBaseError(ErrorTypeBackend, fmt.Sprintf("backend unavailable: %s", backend), err),
		Backend:   backend,
	}
}

// Pipeline Errors

// ErrPipelineFailed is returned when an ingest job fails mid-pipeline.
// The message is recorded on the job record and is not auto-retried.
type ErrPipelineFailed struct {
	*BaseError
	JobID string
	Stage string
}

func NewPipelineFailed(jobID, stage string, err error) *ErrPipelineFailed {
	return &ErrPipelineFailed{
		BaseError: NewBaseError(ErrorTypePipeline, fmt.Sprintf("ingest pipeline failed at %s", stage), err),
		JobID:     jobID,
		Stage:     stage,
	}
}

// Store Errors

// ErrStoreFailed is returned when a persistent store operation fails
type ErrStoreFailed struct {
	*BaseError
	Operation string
}

func NewStoreFailed(operation string, err error) *ErrStoreFailed {
	return &ErrStoreFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if baseErr, ok := err.(*BaseError); ok {
		return baseErr.Type == errType
	}
	if typed, ok := err.(interface{ base() *BaseError }); ok {
		return typed.base().Type == errType
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapped.Unwrap(); inner != nil {
			return IsErrorType(inner, errType)
		}
	}
	return false
}

func (e *ErrValidation) base() *BaseError         { return e.BaseError }
func (e *ErrDocumentNotFound) base() *BaseError   { return e.BaseError }
func (e *ErrJobNotFound) base() *BaseError        { return e.BaseError }
func (e *ErrEntityNotFound) base() *BaseError     { return e.BaseError }
func (e *ErrBackendUnavailable) base() *BaseError { return e.BaseError }
func (e *ErrPipelineFailed) base() *BaseError     { return e.BaseError }
func (e *ErrStoreFailed) base() *BaseError        { return e.BaseError }

// IsNotFound checks if an error represents a missing record
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Validation and not-found errors are never retryable
	if IsErrorType(err, ErrorTypeValidation) || IsErrorType(err, ErrorTypeNotFound) {
		return false
	}
	// Backend connectivity errors are retryable
	if IsErrorType(err, ErrorTypeBackend) {
		return true
	}
	return false
}
