// Package model defines the boundary between the process-definition store and
// the component that turns a raw definition document into an executable
// in-memory model.
package model

// Element is a named element within an executable process, such as a task, an
// event, a gateway or a sequence flow.
type Element interface {
	// ElementID returns the element's ID, which is unique within its process.
	ElementID() string
}

// ExecutableProcess is the parsed, execution-ready form of a single process
// within a definition document.
type ExecutableProcess interface {
	// ProcessID returns the process's stable, logical name.
	ProcessID() string

	// Element returns the element with the given ID.
	//
	// ok is false if the process has no such element.
	Element(id string) (e Element, ok bool)
}

// Transformer turns a raw definition document into the executable processes
// that it contains.
//
// Implementations must be deterministic and free of side-effects. They must not
// retain resource after Transform returns.
type Transformer interface {
	Transform(resource []byte) ([]ExecutableProcess, error)
}

// TransformerFunc is an adaptor to allow the use of an ordinary function as a
// Transformer.
type TransformerFunc func(resource []byte) ([]ExecutableProcess, error)

// Transform returns fn(resource).
func (fn TransformerFunc) Transform(resource []byte) ([]ExecutableProcess, error) {
	return fn(resource)
}
