package bpmn

import (
	"slices"
	"strings"

	"github.com/dogmatiq/procstore/model"
)

// Process is an executable BPMN process.
type Process struct {
	ID   string
	Name string

	elements map[string]model.Element
}

// ProcessID returns the process's ID.
func (p *Process) ProcessID() string {
	return p.ID
}

// Element returns the element with the given ID.
func (p *Process) Element(id string) (model.Element, bool) {
	e, ok := p.elements[id]
	return e, ok
}

// Elements returns all of the process's elements, ordered by ID.
func (p *Process) Elements() []model.Element {
	elements := make([]model.Element, 0, len(p.elements))
	for _, e := range p.elements {
		elements = append(elements, e)
	}

	slices.SortFunc(
		elements,
		func(a, b model.Element) int {
			return strings.Compare(a.ElementID(), b.ElementID())
		},
	)

	return elements
}

// StartEvents returns the process's start events, ordered by ID.
func (p *Process) StartEvents() []*StartEvent {
	var events []*StartEvent
	for _, e := range p.Elements() {
		if s, ok := e.(*StartEvent); ok {
			events = append(events, s)
		}
	}
	return events
}

// FlowNode is an element that sequence flows connect, that is, any element
// other than a sequence flow.
type FlowNode interface {
	model.Element

	// Flows returns the node's incoming and outgoing sequence flows.
	Flows() (incoming, outgoing []*SequenceFlow)
}

// Node holds the attributes common to all flow nodes.
type Node struct {
	ID       string
	Name     string
	Incoming []*SequenceFlow
	Outgoing []*SequenceFlow
}

// ElementID returns the node's ID.
func (n *Node) ElementID() string {
	return n.ID
}

// Flows returns the node's incoming and outgoing sequence flows.
func (n *Node) Flows() (incoming, outgoing []*SequenceFlow) {
	return n.Incoming, n.Outgoing
}

// StartEvent is a BPMN <startEvent> element.
type StartEvent struct{ Node }

// EndEvent is a BPMN <endEvent> element.
type EndEvent struct{ Node }

// IntermediateCatchEvent is a BPMN <intermediateCatchEvent> element.
type IntermediateCatchEvent struct{ Node }

// ServiceTask is a BPMN <serviceTask> element.
type ServiceTask struct {
	Node

	// JobType is the type of job that workers must complete to complete the
	// task, as given by the <zeebe:taskDefinition> extension element.
	JobType string

	// Retries is the number of times the job may be retried. It is empty if
	// the document does not specify it.
	Retries string
}

// UserTask is a BPMN <userTask> element.
type UserTask struct{ Node }

// ExclusiveGateway is a BPMN <exclusiveGateway> element.
type ExclusiveGateway struct {
	Node

	// Default is the flow that is taken when no condition matches, or nil if
	// the gateway has no default flow.
	Default *SequenceFlow
}

// ParallelGateway is a BPMN <parallelGateway> element.
type ParallelGateway struct{ Node }

// SequenceFlow is a BPMN <sequenceFlow> element.
type SequenceFlow struct {
	ID        string
	Name      string
	Source    FlowNode
	Target    FlowNode
	Condition string
}

// ElementID returns the flow's ID.
func (f *SequenceFlow) ElementID() string {
	return f.ID
}
