// Package bpmn is a model.Transformer for a subset of BPMN 2.0 XML.
package bpmn

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/dogmatiq/procstore/model"
)

// Transformer is a model.Transformer that parses BPMN 2.0 XML documents.
//
// Only processes with isExecutable="true" are returned.
var Transformer model.Transformer = model.TransformerFunc(Transform)

// Transform parses a BPMN document and returns its executable processes.
func Transform(resource []byte) ([]model.ExecutableProcess, error) {
	doc, err := parse(resource)
	if err != nil {
		return nil, err
	}

	var processes []model.ExecutableProcess

	for _, xp := range doc.Processes {
		if !xp.IsExecutable {
			continue
		}

		p, err := build(xp)
		if err != nil {
			return nil, err
		}

		processes = append(processes, p)
	}

	return processes, nil
}

// ProcessIDs returns the IDs of the executable processes within a BPMN
// document, in document order.
func ProcessIDs(resource []byte) ([]string, error) {
	doc, err := parse(resource)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, xp := range doc.Processes {
		if xp.IsExecutable {
			ids = append(ids, xp.ID)
		}
	}

	return ids, nil
}

func parse(resource []byte) (xmlDefinitions, error) {
	var doc xmlDefinitions
	if err := xml.Unmarshal(resource, &doc); err != nil {
		return xmlDefinitions{}, fmt.Errorf("unable to parse BPMN document: %w", err)
	}
	return doc, nil
}

// build constructs a Process from its XML representation, resolving the
// references between sequence flows and flow nodes.
func build(xp xmlProcess) (*Process, error) {
	if xp.ID == "" {
		return nil, fmt.Errorf("executable process has no ID")
	}

	p := &Process{
		ID:       xp.ID,
		Name:     xp.Name,
		elements: map[string]model.Element{},
	}

	nodes := map[string]*Node{}

	add := func(e model.Element, n *Node) error {
		id := e.ElementID()
		if id == "" {
			return fmt.Errorf("process '%s' contains an element with no ID", p.ID)
		}
		if _, ok := p.elements[id]; ok {
			return fmt.Errorf("process '%s' contains more than one element with ID '%s'", p.ID, id)
		}

		p.elements[id] = e
		if n != nil {
			nodes[id] = n
		}

		return nil
	}

	var gateways []struct {
		gw  *ExclusiveGateway
		ref string
	}

	for _, x := range xp.StartEvents {
		e := &StartEvent{x.node()}
		if err := add(e, &e.Node); err != nil {
			return nil, err
		}
	}

	for _, x := range xp.EndEvents {
		e := &EndEvent{x.node()}
		if err := add(e, &e.Node); err != nil {
			return nil, err
		}
	}

	for _, x := range xp.IntermediateCatchEvents {
		e := &IntermediateCatchEvent{x.node()}
		if err := add(e, &e.Node); err != nil {
			return nil, err
		}
	}

	for _, x := range xp.ServiceTasks {
		e := &ServiceTask{
			Node:    x.node(),
			JobType: x.TaskDefinition.Type,
			Retries: x.TaskDefinition.Retries,
		}
		if err := add(e, &e.Node); err != nil {
			return nil, err
		}
	}

	for _, x := range xp.UserTasks {
		e := &UserTask{x.node()}
		if err := add(e, &e.Node); err != nil {
			return nil, err
		}
	}

	for _, x := range xp.ExclusiveGateways {
		e := &ExclusiveGateway{Node: x.node()}
		if err := add(e, &e.Node); err != nil {
			return nil, err
		}

		if x.Default != "" {
			gateways = append(gateways, struct {
				gw  *ExclusiveGateway
				ref string
			}{e, x.Default})
		}
	}

	for _, x := range xp.ParallelGateways {
		e := &ParallelGateway{x.node()}
		if err := add(e, &e.Node); err != nil {
			return nil, err
		}
	}

	for _, x := range xp.SequenceFlows {
		f := &SequenceFlow{
			ID:        x.ID,
			Name:      x.Name,
			Condition: strings.TrimSpace(x.Condition),
		}
		if err := add(f, nil); err != nil {
			return nil, err
		}

		src, ok := nodes[x.SourceRef]
		if !ok {
			return nil, fmt.Errorf("sequence flow '%s' in process '%s' refers to unknown source '%s'", f.ID, p.ID, x.SourceRef)
		}

		dst, ok := nodes[x.TargetRef]
		if !ok {
			return nil, fmt.Errorf("sequence flow '%s' in process '%s' refers to unknown target '%s'", f.ID, p.ID, x.TargetRef)
		}

		f.Source = p.elements[x.SourceRef].(FlowNode)
		f.Target = p.elements[x.TargetRef].(FlowNode)
		src.Outgoing = append(src.Outgoing, f)
		dst.Incoming = append(dst.Incoming, f)
	}

	for _, x := range gateways {
		f, ok := p.elements[x.ref].(*SequenceFlow)
		if !ok || f.Source != FlowNode(x.gw) {
			return nil, fmt.Errorf("default flow '%s' of gateway '%s' in process '%s' is not one of its outgoing flows", x.ref, x.gw.ID, p.ID)
		}
		x.gw.Default = f
	}

	return p, nil
}
