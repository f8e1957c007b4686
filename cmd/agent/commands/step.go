package commands

import (
	"github.com/grafana/netsplit/pkg/runtime"
	"github.com/spf13/cobra"
)

// BuildActivateCmd builds the command that only activates a fault
func BuildActivateCmd(env runtime.Environment, opts *Options) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "activate the fault described in a spec file and exit",
		Long: "Activates the fault and exits. The fault must be deactivated with the deactivate command.\n" +
			"Activating a network partition twice adds duplicated rules.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, logger, err := buildAgent(cmd, env, opts)
			if err != nil {
				return err
			}

			f, err := loadFault(specPath, "", opts, logger)
			if err != nil {
				return err
			}

			return agent.Activate(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "path to the fault spec")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}

// BuildDeactivateCmd builds the command that deactivates a fault activated with the activate command
func BuildDeactivateCmd(env runtime.Environment, opts *Options) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "deactivate the fault described in a spec file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, logger, err := buildAgent(cmd, env, opts)
			if err != nil {
				return err
			}

			f, err := loadFault(specPath, "", opts, logger)
			if err != nil {
				return err
			}

			return agent.Deactivate(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "path to the fault spec")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}
