package deployment

import (
	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/procstore/internal/metrics"
	"github.com/dogmatiq/procstore/persistence"
)

// reconstruct builds the executable process for def and adds it to both
// caches.
//
// The transformer is given a private copy of the resource, which is retained
// by the returned Process. def's buffers are never retained.
func (s *State) reconstruct(def persistence.ProcessDefinition) (*Process, error) {
	def = def.Clone()

	processes, err := s.transformer.Transform(def.Resource)
	if err != nil {
		return nil, &NoExecutableDefinitionFoundError{
			TenantID:  def.TenantID,
			Key:       def.Key,
			ProcessID: def.ProcessID,
			Cause:     err,
		}
	}

	for _, exec := range processes {
		if exec.ProcessID() != def.ProcessID {
			continue
		}

		p := &Process{def, exec}
		s.cache.put(p)

		metrics.IncReconstruction()
		logging.Debug(
			s.logger,
			"@%s | rebuilt process '%s' v%d with key %d",
			def.TenantID,
			def.ProcessID,
			def.Version,
			def.Key,
		)

		return p, nil
	}

	return nil, &NoExecutableDefinitionFoundError{
		TenantID:  def.TenantID,
		Key:       def.Key,
		ProcessID: def.ProcessID,
	}
}
