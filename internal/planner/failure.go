package planner

import (
	"errors"

	"github.com/wayfarerhq/wayfarer/backend/internal/auth"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"github.com/wayfarerhq/wayfarer/backend/internal/trips"
)

// FailureKind tags the command-level failure taxonomy.
type FailureKind string

const (
	KindNotFound           FailureKind = "not_found"
	KindInvalidCredentials FailureKind = "invalid_credentials"
	KindUserExists         FailureKind = "user_exists"
	KindUnauthorized       FailureKind = "unauthorized"
	KindForbidden          FailureKind = "forbidden"
	KindStoreUnavailable   FailureKind = "store_unavailable"
	KindValidationFailed   FailureKind = "validation_failed"
)

// Failure is the tagged result returned across the command boundary. It is
// always returned, never panicked, and carries the numeric code the transport
// layer maps to a status.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

// AsFailure unwraps err into a *Failure when it carries one.
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

func notFound(message string) error {
	return &Failure{Kind: KindNotFound, Code: 404, Message: message}
}

func invalidCredentials() error {
	return &Failure{Kind: KindInvalidCredentials, Code: 401, Message: "Invalid credentials"}
}

func userExists() error {
	return &Failure{Kind: KindUserExists, Code: 400, Message: "User already exists"}
}

func unauthorized() error {
	return &Failure{Kind: KindUnauthorized, Code: 401, Message: "Authentication required"}
}

func forbidden() error {
	return &Failure{Kind: KindForbidden, Code: 403, Message: "You do not own this resource"}
}

func storeUnavailable() error {
	return &Failure{Kind: KindStoreUnavailable, Code: 500, Message: "Storage unavailable"}
}

func validationFailed(message string) error {
	return &Failure{Kind: KindValidationFailed, Code: 400, Message: message}
}

// wrapRepoError re-surfaces low-level repository and auth errors as tagged
// failures so raw store errors never cross the command boundary.
func wrapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrInvalidCredentials):
		return invalidCredentials()
	case errors.Is(err, auth.ErrUserExists):
		return userExists()
	case errors.Is(err, trips.ErrInvalidIndex):
		return validationFailed("day_index and order_index must be integers")
	case errors.Is(err, store.ErrSheetMissing), errors.Is(err, store.ErrEmptyHeader):
		return storeUnavailable()
	default:
		return storeUnavailable()
	}
}
