package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeUpstreamFailure  = "UPSTREAM_FAILURE"
)

// Validation errors
var (
	ErrInvalidRecordStatus  = NewDomainError(ErrCodeValidation, "invalid record status")
	ErrInvalidContentType   = NewDomainError(ErrCodeValidation, "invalid content type")
	ErrInvalidIngestStatus  = NewDomainError(ErrCodeValidation, "invalid ingest job status")
	ErrInvalidChannel       = NewDomainError(ErrCodeValidation, "invalid distribution channel")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrRecordNotFound    = NewDomainError(ErrCodeNotFound, "knowledge record not found")
	ErrAssetNotFound     = NewDomainError(ErrCodeNotFound, "asset not found")
	ErrIngestJobNotFound = NewDomainError(ErrCodeNotFound, "ingest job not found")
	ErrOwnerNotFound     = NewDomainError(ErrCodeNotFound, "owner not found")
	ErrAPIKeyNotFound    = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Already exists errors
var (
	ErrRecordAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "knowledge record already exists")
	ErrOwnerAlreadyExists  = NewDomainError(ErrCodeAlreadyExists, "owner already exists")
	ErrAPIKeyAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "api key already exists")
)

// Authorization errors
var (
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)

// Operation errors
var (
	ErrRecordNotDistributable = NewDomainError(ErrCodeInvalidOperation, "record has no extracted fields to distribute")
	ErrRecordNotPending       = NewDomainError(ErrCodeInvalidOperation, "record is not pending ingestion")
	ErrAssetNotImage          = NewDomainError(ErrCodeInvalidOperation, "asset is not an image")
)

// Upstream errors
var (
	ErrEmbeddingFailed      = NewDomainError(ErrCodeUpstreamFailure, "embedding generation failed")
	ErrSynthesisFailed      = NewDomainError(ErrCodeUpstreamFailure, "answer synthesis failed")
	ErrDeliveryFailed       = NewDomainError(ErrCodeUpstreamFailure, "message delivery failed")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
