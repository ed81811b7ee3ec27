// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError is for request tracking when an operation returns no error.
	CategoryNoError Category = iota
	// CategoryValidation The caller sent a malformed or semantically invalid request,
	// for example an unknown chain id, equal source/destination chains, or a
	// non-positive amount. Never retried automatically.
	CategoryValidation
	// CategoryNotFound The referenced transaction or pool does not exist
	CategoryNotFound
	// CategoryConsensus Validator quorum was not reached, or the consensus result
	// could not be persisted for later audit
	CategoryConsensus
	// CategoryDependency A collaborator (store, cache) is unavailable
	CategoryDependency
	// CategoryConflict The request conflicts with the transaction's current state
	CategoryConflict
	// CategoryUnauthorized The caller is not authorized for the requested resource
	CategoryUnauthorized
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "CategoryValidation"
	case CategoryNotFound:
		return "CategoryNotFound"
	case CategoryConsensus:
		return "CategoryConsensus"
	case CategoryDependency:
		return "CategoryDependency"
	case CategoryConflict:
		return "CategoryConflict"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError represents service specific type that
// is used all over the services.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is implements the custom condition to check an error is equal to a service error
func (err ServiceError) Is(target error) bool {
	return err.Message == target.Error()
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// IsInternalError checks that provided error is an internal system error
func IsInternalError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category < CategoryDependency {
		return false
	}
	return true
}

// ValidationError returns an error with category Validation
// the error message provided is returned to the user
func ValidationError(err error, message string) error {
	if err == nil {
		err = errors.New("validation failed: " + message)
	}
	return &ServiceError{
		Category: CategoryValidation,
		Message:  message,
		Err:      err,
	}
}

// NotFoundError returns an error with category NotFound
// the error message provided is returned to the user
func NotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("not found: " + message)
	}
	return &ServiceError{
		Category: CategoryNotFound,
		Message:  message,
		Err:      err,
	}
}

// ConsensusFailure returns an error with category Consensus
// the error message provided is returned to the user
// the err object provided carries the underlying cause for operators
func ConsensusFailure(err error, message string) error {
	if err == nil {
		err = errors.New("consensus failure: " + message)
	}
	return &ServiceError{
		Category: CategoryConsensus,
		Message:  message,
		Err:      err,
	}
}

// DependencyError returns an error with category Dependency
// the error message provided is returned to the user
func DependencyError(err error, message string) error {
	if err == nil {
		err = errors.New("dependency failure: " + message)
	}
	return &ServiceError{
		Category: CategoryDependency,
		Message:  message,
		Err:      err,
	}
}

// ConflictError returns an error with category Conflict
func ConflictError(err error, message string) error {
	if err == nil {
		err = errors.New("conflict: " + message)
	}
	return &ServiceError{
		Category: CategoryConflict,
		Message:  message,
		Err:      err,
	}
}

// UnAuthorizedError returns an error with category Unauthorized
func UnAuthorizedError(err error, message string) error {
	if err == nil {
		err = errors.New("unauthorized")
	}
	return &ServiceError{
		Category: CategoryUnauthorized,
		Message:  message,
		Err:      err,
	}
}

// GeneralError returns a general service error
// this error message sent to the user is "Internal Server Error"
// the error passed is logged in the logger
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal server error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "Internal Server Error",
		Err:      err,
	}
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConsensus:
		return http.StatusUnprocessableEntity
	case CategoryDependency:
		return http.StatusBadGateway
	case CategoryConflict:
		return http.StatusConflict
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
