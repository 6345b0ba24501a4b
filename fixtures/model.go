package fixtures

import (
	"github.com/dogmatiq/procstore/model"
)

// TransformerStub is a test implementation of the model.Transformer
// interface.
//
// By default it returns an ExecutableProcessStub for each of ProcessIDs,
// regardless of the resource.
type TransformerStub struct {
	ProcessIDs    []string
	TransformFunc func([]byte) ([]model.ExecutableProcess, error)

	// Calls is the number of times Transform() has been called.
	Calls int
}

// Transform returns the executable processes within resource.
func (t *TransformerStub) Transform(resource []byte) ([]model.ExecutableProcess, error) {
	t.Calls++

	if t.TransformFunc != nil {
		return t.TransformFunc(resource)
	}

	var processes []model.ExecutableProcess
	for _, id := range t.ProcessIDs {
		processes = append(processes, &ExecutableProcessStub{ID: id})
	}

	return processes, nil
}

// ExecutableProcessStub is a test implementation of the
// model.ExecutableProcess interface.
type ExecutableProcessStub struct {
	ID       string
	Elements []model.Element
}

// ProcessID returns the process ID.
func (p *ExecutableProcessStub) ProcessID() string {
	return p.ID
}

// Element returns the element with the given ID.
func (p *ExecutableProcessStub) Element(id string) (model.Element, bool) {
	for _, e := range p.Elements {
		if e.ElementID() == id {
			return e, true
		}
	}
	return nil, false
}

// ElementStub is a test implementation of the model.Element interface.
type ElementStub struct {
	ID string
}

// ElementID returns the element ID.
func (e *ElementStub) ElementID() string {
	return e.ID
}
