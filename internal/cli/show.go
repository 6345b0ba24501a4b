package cli

import (
	"fmt"
	"reflect"

	"github.com/dogmatiq/procstore/deployment"
	"github.com/dogmatiq/procstore/model"
	"github.com/dogmatiq/procstore/persistence"
	"github.com/spf13/cobra"
)

func newShowCommand(config func() Config) *cobra.Command {
	var (
		version  uint64
		resource bool
		element  string
	)

	cmd := &cobra.Command{
		Use:   "show PROCESS_ID",
		Short: "Show a deployed process",
		Long: `Show the latest version of a deployed process, or the version given by
--version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config()
			processID := args[0]

			return withSession(cmd, cfg, func(s *session) error {
				var out any

				err := s.run(
					cmd.Context(),
					func(state *deployment.State, tx persistence.ManagedTransaction) error {
						var (
							p   *deployment.Process
							ok  bool
							err error
						)

						if version == 0 {
							p, ok, err = state.LatestProcessByProcessID(cmd.Context(), tx, processID, cfg.Tenant)
						} else {
							p, ok, err = state.ProcessByProcessIDAndVersion(cmd.Context(), tx, processID, version, cfg.Tenant)
						}
						if err != nil {
							return err
						}
						if !ok {
							return notFound(processID, version)
						}

						switch {
						case resource:
							out = string(p.Resource())
						case element != "":
							e, err := deployment.FlowElement[model.Element](
								cmd.Context(),
								state,
								tx,
								p.Key(),
								cfg.Tenant,
								element,
							)
							if err != nil {
								return err
							}
							out = map[string]string{
								"id":   e.ElementID(),
								"type": reflect.TypeOf(e).Elem().Name(),
							}
						default:
							out = summarizeProcess(p)
						}

						return nil
					},
				)
				if err != nil {
					return err
				}

				if text, ok := out.(string); ok {
					_, err := fmt.Fprint(cmd.OutOrStdout(), text)
					return err
				}

				return write(cmd.OutOrStdout(), cfg.Output, out)
			})
		},
	}

	cmd.Flags().Uint64Var(&version, "version", 0, "version of the process to show")
	cmd.Flags().BoolVar(&resource, "resource", false, "print the BPMN resource instead of a summary")
	cmd.Flags().StringVar(&element, "element", "", "show the element with this ID")
	cmd.MarkFlagsMutuallyExclusive("resource", "element")

	return cmd
}

func notFound(processID string, version uint64) error {
	if version == 0 {
		return fmt.Errorf("process '%s' is not deployed", processID)
	}
	return fmt.Errorf("version %d of process '%s' is not deployed", version, processID)
}
