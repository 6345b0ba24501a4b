package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dogmatiq/procstore/deployment"
	"github.com/dogmatiq/procstore/model/bpmn"
	"github.com/dogmatiq/procstore/persistence"
	"gopkg.in/yaml.v3"
)

// processSummary is the output representation of a deployed process.
type processSummary struct {
	TenantID      string   `json:"tenant_id" yaml:"tenant_id"`
	Key           uint64   `json:"key" yaml:"key"`
	ProcessID     string   `json:"process_id" yaml:"process_id"`
	Version       uint64   `json:"version" yaml:"version"`
	ResourceName  string   `json:"resource_name" yaml:"resource_name"`
	Checksum      string   `json:"checksum" yaml:"checksum"`
	DeploymentKey uint64   `json:"deployment_key" yaml:"deployment_key"`
	State         string   `json:"state" yaml:"state"`
	Elements      []string `json:"elements,omitempty" yaml:"elements,omitempty"`
}

func summarize(def persistence.ProcessDefinition) processSummary {
	return processSummary{
		TenantID:      def.TenantID,
		Key:           def.Key,
		ProcessID:     def.ProcessID,
		Version:       def.Version,
		ResourceName:  def.ResourceName,
		Checksum:      hex.EncodeToString(def.Checksum),
		DeploymentKey: def.DeploymentKey,
		State:         def.State.String(),
	}
}

// summarizeProcess returns the summary of p including the IDs of its
// elements.
func summarizeProcess(p *deployment.Process) processSummary {
	s := summarize(p.Definition())

	if exec, ok := p.Executable().(*bpmn.Process); ok {
		for _, e := range exec.Elements() {
			s.Elements = append(s.Elements, e.ElementID())
		}
	}

	return s
}

// deployResult is the output representation of a process within a deployment.
type deployResult struct {
	File      string `json:"file" yaml:"file"`
	ProcessID string `json:"process_id" yaml:"process_id"`
	Version   uint64 `json:"version" yaml:"version"`
	Key       uint64 `json:"key" yaml:"key"`
	Status    string `json:"status" yaml:"status"`
}

// Values of deployResult.Status.
const (
	statusDeployed  = "deployed"
	statusUnchanged = "unchanged"
)

// write encodes v to w in the given format.
func write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format '%s'", format)
	}
}
