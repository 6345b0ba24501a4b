package bpmn

// The XML representation of the supported subset of BPMN. Elements are matched
// by local name, so any namespace prefix may be used.

type xmlDefinitions struct {
	Processes []xmlProcess `xml:"process"`
}

type xmlProcess struct {
	ID           string `xml:"id,attr"`
	Name         string `xml:"name,attr"`
	IsExecutable bool   `xml:"isExecutable,attr"`

	StartEvents             []xmlNode         `xml:"startEvent"`
	EndEvents               []xmlNode         `xml:"endEvent"`
	IntermediateCatchEvents []xmlNode         `xml:"intermediateCatchEvent"`
	ServiceTasks            []xmlServiceTask  `xml:"serviceTask"`
	UserTasks               []xmlNode         `xml:"userTask"`
	ExclusiveGateways       []xmlGateway      `xml:"exclusiveGateway"`
	ParallelGateways        []xmlNode         `xml:"parallelGateway"`
	SequenceFlows           []xmlSequenceFlow `xml:"sequenceFlow"`
}

type xmlNode struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

func (x xmlNode) node() Node {
	return Node{ID: x.ID, Name: x.Name}
}

type xmlServiceTask struct {
	xmlNode
	TaskDefinition struct {
		Type    string `xml:"type,attr"`
		Retries string `xml:"retries,attr"`
	} `xml:"extensionElements>taskDefinition"`
}

type xmlGateway struct {
	xmlNode
	Default string `xml:"default,attr"`
}

type xmlSequenceFlow struct {
	ID        string `xml:"id,attr"`
	Name      string `xml:"name,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
	Condition string `xml:"conditionExpression"`
}
