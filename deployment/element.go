package deployment

import (
	"context"
	"reflect"

	"github.com/dogmatiq/procstore/model"
	"github.com/dogmatiq/procstore/persistence"
)

// FlowElement returns the element with the given ID from the process with the
// given definition key.
//
// It returns a *DefinitionNotFoundError if the process does not exist, or an
// *ElementNotFoundError if it has no such element or the element is not a T.
// Both are fatal. Callers only reference elements of processes that they know
// to be deployed.
func FlowElement[T model.Element](
	ctx context.Context,
	s *State,
	tx persistence.ProcessDefinitionTable,
	key uint64,
	tenantID string,
	elementID string,
) (T, error) {
	var zero T

	p, ok, err := s.ProcessByKey(ctx, tx, key, tenantID)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &DefinitionNotFoundError{
			TenantID: tenantID,
			Key:      key,
		}
	}

	if e, ok := p.exec.Element(elementID); ok {
		if t, ok := e.(T); ok {
			return t, nil
		}
	}

	return zero, &ElementNotFoundError{
		TenantID:     tenantID,
		Key:          key,
		ElementID:    elementID,
		ExpectedType: reflect.TypeOf((*T)(nil)).Elem(),
	}
}
