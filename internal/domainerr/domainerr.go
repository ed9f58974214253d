// Package domainerr defines the business errors returned by lifecycle operations.
// They are plain values: callers inspect them with KindOf or errors.As instead of
// treating them as infrastructure failures.
package domainerr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	// Validation
	ReasonRequired  Kind = "REASON_REQUIRED"
	InvalidToStatus Kind = "INVALID_TO_STATUS"
	SignerRequired  Kind = "SIGNER_REQUIRED"
	InvalidAmount   Kind = "INVALID_AMOUNT"
	InvalidInput    Kind = "INVALID_INPUT"

	// State conflict
	InvalidState         Kind = "INVALID_STATE"
	InvalidTransition    Kind = "INVALID_TRANSITION"
	Locked               Kind = "LOCKED"
	AlreadyCancelled     Kind = "ALREADY_CANCELLED"
	InvalidContractState Kind = "INVALID_CONTRACT_STATE"
	QuoteNotAccepted     Kind = "QUOTE_NOT_ACCEPTED"
	AlreadyExists        Kind = "ALREADY_EXISTS"

	// Not found
	NotFound         Kind = "NOT_FOUND"
	ContractNotFound Kind = "CONTRACT_NOT_FOUND"
	ProjectNotFound  Kind = "PROJECT_NOT_FOUND"
	QuoteNotFound    Kind = "QUOTE_NOT_FOUND"
)

type Category string

const (
	CategoryValidation Category = "validation"
	CategoryConflict   Category = "state_conflict"
	CategoryNotFound   Category = "not_found"
)

func (k Kind) Category() Category {
	switch k {
	case ReasonRequired, InvalidToStatus, SignerRequired, InvalidAmount, InvalidInput:
		return CategoryValidation
	case NotFound, ContractNotFound, ProjectNotFound, QuoteNotFound:
		return CategoryNotFound
	default:
		return CategoryConflict
	}
}

// Error is a tagged business-rule violation. Current and Requested carry the entity
// state involved, when there is one.
type Error struct {
	Kind      Kind   `json:"kind"`
	Entity    string `json:"entity,omitempty"`
	Current   string `json:"current_status,omitempty"`
	Requested string `json:"requested_status,omitempty"`
	Message   string `json:"message"`
}

func (e *Error) Error() string {
	switch {
	case e.Current != "" && e.Requested != "":
		return fmt.Sprintf("%s: %s (current=%s, requested=%s)", e.Kind, e.Message, e.Current, e.Requested)
	case e.Current != "":
		return fmt.Sprintf("%s: %s (current=%s)", e.Kind, e.Message, e.Current)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func New(kind Kind, entity, message string) *Error {
	return &Error{Kind: kind, Entity: entity, Message: message}
}

// WithState returns an error reporting the entity's current state.
func WithState(kind Kind, entity, current, message string) *Error {
	return &Error{Kind: kind, Entity: entity, Current: current, Message: message}
}

// Transition returns an InvalidTransition error for the requested edge.
func Transition(entity, current, requested string) *Error {
	return &Error{
		Kind:      InvalidTransition,
		Entity:    entity,
		Current:   current,
		Requested: requested,
		Message:   fmt.Sprintf("cannot move %s from %s to %s", entity, current, requested),
	}
}

// KindOf returns the kind of a business error, or "" for anything else.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As extracts the business error, if any.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HTTPStatus maps an error to the response status an API handler should use.
// Anything that is not a business error is an infrastructure failure.
func HTTPStatus(err error) int {
	de, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch de.Kind.Category() {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}
