package deployment

import (
	"bytes"

	"github.com/dogmatiq/procstore/model"
	"github.com/dogmatiq/procstore/persistence"
)

// Process is a deployed process definition along with its executable model.
//
// A Process owns its copy of the persisted definition. It never shares buffers
// with the data store or the transformer.
type Process struct {
	def  persistence.ProcessDefinition
	exec model.ExecutableProcess
}

// Definition returns a copy of the persisted definition.
func (p *Process) Definition() persistence.ProcessDefinition {
	return p.def.Clone()
}

// Executable returns the executable model of the process.
func (p *Process) Executable() model.ExecutableProcess {
	return p.exec
}

// TenantID returns the ID of the tenant that owns the process.
func (p *Process) TenantID() string {
	return p.def.TenantID
}

// Key returns the process's definition key.
func (p *Process) Key() uint64 {
	return p.def.Key
}

// ProcessID returns the process ID.
func (p *Process) ProcessID() string {
	return p.def.ProcessID
}

// Version returns the process version.
func (p *Process) Version() uint64 {
	return p.def.Version
}

// ResourceName returns the name of the resource that defines the process.
func (p *Process) ResourceName() string {
	return p.def.ResourceName
}

// DeploymentKey returns the key of the deployment that introduced the process.
func (p *Process) DeploymentKey() uint64 {
	return p.def.DeploymentKey
}

// State returns the process's lifecycle state.
func (p *Process) State() persistence.LifecycleState {
	return p.def.State
}

// Checksum returns a copy of the digest of the process's resource.
func (p *Process) Checksum() []byte {
	return bytes.Clone(p.def.Checksum)
}

// Resource returns a copy of the raw definition document.
func (p *Process) Resource() []byte {
	return bytes.Clone(p.def.Resource)
}

// withState returns a copy of p with a different lifecycle state. The
// executable model is shared, it is immutable.
func (p *Process) withState(s persistence.LifecycleState) *Process {
	x := *p
	x.def.State = s
	return &x
}
