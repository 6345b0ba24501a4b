package deployment

import (
	"errors"
	"fmt"
	"reflect"
)

// NoExecutableDefinitionFoundError indicates that a persisted definition could
// not be turned back into an executable process because the transformed
// resource does not contain a process with the definition's process ID.
//
// It means that the persisted data disagrees with the transformer. It is not
// recoverable.
type NoExecutableDefinitionFoundError struct {
	TenantID  string
	Key       uint64
	ProcessID string

	// Cause is the error returned by the transformer, if any.
	Cause error
}

func (e *NoExecutableDefinitionFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf(
			"expected to find executable process '%s' in persisted process with key %d (tenant '%s'), but the resource could not be transformed: %s",
			e.ProcessID,
			e.Key,
			e.TenantID,
			e.Cause,
		)
	}

	return fmt.Sprintf(
		"expected to find executable process '%s' in persisted process with key %d (tenant '%s'), but after transformation no such executable process could be found",
		e.ProcessID,
		e.Key,
		e.TenantID,
	)
}

func (e *NoExecutableDefinitionFoundError) Unwrap() error {
	return e.Cause
}

// DefinitionNotFoundError indicates that a caller referenced a process
// definition that has not been deployed.
type DefinitionNotFoundError struct {
	TenantID string
	Key      uint64
}

func (e *DefinitionNotFoundError) Error() string {
	return fmt.Sprintf(
		"expected to find a process deployed with key %d (tenant '%s'), but not found",
		e.Key,
		e.TenantID,
	)
}

// ElementNotFoundError indicates that a caller referenced an element that does
// not exist within a deployed process, or that is not of the expected type.
type ElementNotFoundError struct {
	TenantID     string
	Key          uint64
	ElementID    string
	ExpectedType reflect.Type
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf(
		"expected to find a flow element with ID '%s' of type %s in process with key %d (tenant '%s'), but not found",
		e.ElementID,
		e.ExpectedType,
		e.Key,
		e.TenantID,
	)
}

// IsFatal returns true if err, or any error it wraps, indicates an internal
// consistency violation that can not be resolved by retrying.
func IsFatal(err error) bool {
	var (
		noExec    *NoExecutableDefinitionFoundError
		noDef     *DefinitionNotFoundError
		noElement *ElementNotFoundError
	)

	return errors.As(err, &noExec) ||
		errors.As(err, &noDef) ||
		errors.As(err, &noElement)
}
