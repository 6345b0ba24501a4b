package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dogmatiq/procstore/deployment"
	"github.com/dogmatiq/procstore/model/bpmn"
	"github.com/dogmatiq/procstore/persistence"
	"github.com/spf13/cobra"
)

func newDeployCommand(config func() Config) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy FILE...",
		Short: "Deploy the executable processes within BPMN files",
		Long: `Deploy the executable processes within one or more BPMN files as a single
deployment.

A process whose resource is unchanged since its latest version was deployed is
not deployed again.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			cfg := config()

			return withSession(cmd, cfg, func(s *session) error {
				var results []deployResult

				err := s.run(
					cmd.Context(),
					func(state *deployment.State, tx persistence.ManagedTransaction) error {
						var err error
						results, err = deploy(cmd.Context(), state, tx, cfg.Tenant, files)
						return err
					},
				)
				if err != nil {
					return err
				}

				return write(cmd.OutOrStdout(), cfg.Output, results)
			})
		},
	}
}

// deploy stores the executable processes within files as a single deployment.
func deploy(
	ctx context.Context,
	state *deployment.State,
	tx persistence.ManagedTransaction,
	tenantID string,
	files []string,
) ([]deployResult, error) {
	key, err := nextKey(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}

	rec := deployment.Record{TenantID: tenantID}
	seen := map[string]string{}

	var results []deployResult

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		processes, err := bpmn.Transform(content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if len(processes) == 0 {
			return nil, fmt.Errorf("%s: the resource does not contain any executable processes", file)
		}

		name := filepath.Base(file)
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("%s: the resource name conflicts with %s", file, other)
		}
		seen[name] = file

		checksum := deployment.Checksum(content)
		changed := false

		for _, p := range processes {
			id := p.ProcessID()
			if other, ok := seen["process:"+id]; ok {
				return nil, fmt.Errorf("%s: process '%s' is also defined by %s", file, id, other)
			}
			seen["process:"+id] = file

			latest, ok, err := unchanged(ctx, state, tx, tenantID, id, checksum)
			if err != nil {
				return nil, err
			}
			if ok {
				results = append(results, deployResult{
					File:      file,
					ProcessID: id,
					Version:   latest.Version(),
					Key:       latest.Key(),
					Status:    statusUnchanged,
				})
				continue
			}

			version, err := state.NextProcessVersion(ctx, tx, id, tenantID)
			if err != nil {
				return nil, err
			}

			rec.Processes = append(rec.Processes, deployment.ProcessMetadata{
				Key:          key,
				ProcessID:    id,
				Version:      version,
				ResourceName: name,
				Checksum:     checksum,
			})

			results = append(results, deployResult{
				File:      file,
				ProcessID: id,
				Version:   version,
				Key:       key,
				Status:    statusDeployed,
			})

			key++
			changed = true
		}

		if changed {
			rec.Resources = append(rec.Resources, deployment.Resource{
				Name:    name,
				Content: content,
			})
		}
	}

	if len(rec.Processes) == 0 {
		return results, nil
	}

	rec.Key = key

	return results, state.PutDeployment(ctx, tx, rec)
}

// unchanged returns the latest version of a process if its digest matches
// checksum.
func unchanged(
	ctx context.Context,
	state *deployment.State,
	tx persistence.ManagedTransaction,
	tenantID, processID string,
	checksum []byte,
) (*deployment.Process, bool, error) {
	digest, ok, err := state.LatestVersionDigest(ctx, tx, processID, tenantID)
	if err != nil || !ok || !bytes.Equal(digest, checksum) {
		return nil, false, err
	}

	return state.LatestProcessByProcessID(ctx, tx, processID, tenantID)
}

// nextKey returns a key that is greater than any definition or deployment key
// in use by the tenant.
func nextKey(
	ctx context.Context,
	tx persistence.ProcessDefinitionTable,
	tenantID string,
) (uint64, error) {
	var highest uint64

	err := tx.RangeProcessDefinitions(
		ctx,
		tenantID,
		func(def persistence.ProcessDefinition) bool {
			highest = max(highest, def.Key, def.DeploymentKey)
			return true
		},
	)

	return highest + 1, err
}
