package commands

import (
	"fmt"

	"github.com/grafana/netsplit/pkg/topology"
	"github.com/spf13/cobra"
)

// BuildTargetsCmd builds the command that prints the nodes affected by a fault
func BuildTargetsCmd(opts *Options) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "print the nodes affected by the fault described in a spec file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := opts.Logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			topo, err := topology.Load(opts.Topology)
			if err != nil {
				return err
			}

			f, err := loadFault(specPath, "", opts, logger)
			if err != nil {
				return err
			}

			for _, node := range f.TargetNodes(topo) {
				fmt.Fprintln(cmd.OutOrStdout(), node)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "path to the fault spec")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}
