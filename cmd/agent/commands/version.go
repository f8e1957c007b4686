package commands

import (
	"fmt"

	"github.com/grafana/netsplit/internal/consts"
	"github.com/spf13/cobra"
)

// BuildVersionCmd returns a cobra command that prints the version of the agent
func BuildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version of the agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), consts.AgentVersion())
			return nil
		},
	}
}
