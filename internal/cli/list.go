package cli

import (
	"github.com/dogmatiq/procstore/deployment"
	"github.com/dogmatiq/procstore/persistence"
	"github.com/spf13/cobra"
)

func newListCommand(config func() Config) *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tenant's deployed processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config()

			return withSession(cmd, cfg, func(s *session) error {
				summaries := []processSummary{}

				err := s.run(
					cmd.Context(),
					func(state *deployment.State, tx persistence.ManagedTransaction) error {
						var defs []persistence.ProcessDefinition

						if err := tx.RangeProcessDefinitions(
							cmd.Context(),
							cfg.Tenant,
							func(def persistence.ProcessDefinition) bool {
								defs = append(defs, def)
								return true
							},
						); err != nil {
							return err
						}

						for _, def := range defs {
							if latest {
								v, err := state.LatestProcessVersion(cmd.Context(), tx, def.ProcessID, cfg.Tenant)
								if err != nil {
									return err
								}
								if def.Version != v {
									continue
								}
							}

							summaries = append(summaries, summarize(def))
						}

						return nil
					},
				)
				if err != nil {
					return err
				}

				return write(cmd.OutOrStdout(), cfg.Output, summaries)
			})
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "only list the latest version of each process")

	return cmd
}
