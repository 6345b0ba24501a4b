package cli

import (
	"fmt"
	"strconv"

	"github.com/dogmatiq/procstore/deployment"
	"github.com/dogmatiq/procstore/persistence"
	"github.com/spf13/cobra"
)

func newDeleteCommand(config func() Config) *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "delete KEY",
		Short: "Delete a deployed process",
		Long: `Delete the process definition with the given key.

With --pending the definition is kept and marked as pending deletion instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config()

			key, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || key == 0 {
				return fmt.Errorf("invalid key '%s'", args[0])
			}

			return withSession(cmd, cfg, func(s *session) error {
				return s.run(
					cmd.Context(),
					func(state *deployment.State, tx persistence.ManagedTransaction) error {
						if pending {
							return state.UpdateProcessState(
								cmd.Context(),
								tx,
								cfg.Tenant,
								key,
								persistence.ProcessPendingDeletion,
							)
						}

						def, ok, err := tx.LoadProcessDefinitionByKey(cmd.Context(), cfg.Tenant, key)
						if err != nil {
							return err
						}
						if !ok {
							return fmt.Errorf("there is no process with key %d", key)
						}

						return state.DeleteProcess(cmd.Context(), tx, def)
					},
				)
			})
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "mark the process as pending deletion instead of deleting it")

	return cmd
}
