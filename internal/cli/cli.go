// Package cli implements the procstore command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the root procstore command.
func NewCommand() *cobra.Command {
	var cfg Config

	root := &cobra.Command{
		Use:   "procstore",
		Short: "Manage deployed process definitions",
		Long: `procstore stores versioned, tenant-aware BPMN process definitions.

Examples:
  procstore deploy order.bpmn
  procstore show order --version 2
  procstore --driver sqlite --dsn procstore.db schema create`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = loadConfig(cmd.Root().PersistentFlags())
			return err
		},
	}

	addFlags(root.PersistentFlags())

	config := func() Config { return cfg }

	root.AddCommand(
		newDeployCommand(config),
		newShowCommand(config),
		newListCommand(config),
		newDeleteCommand(config),
		newSchemaCommand(config),
	)

	return root
}

// withSession calls fn with a new session for cfg.
func withSession(cmd *cobra.Command, cfg Config, fn func(*session) error) (err error) {
	s, closeSession, err := newSession(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeSession(); err == nil {
			err = cerr
		}
	}()

	return fn(s)
}
