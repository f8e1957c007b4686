package commands

import (
	"fmt"

	"github.com/grafana/netsplit/pkg/runtime"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// BuildCleanupCmd returns a cobra command that stops the running agent. The agent
// deactivates its fault before exiting.
func BuildCleanupCmd(env runtime.Environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "stops any ongoing fault injection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner := env.Lock().Owner()
			// no instance is currently running
			if owner == -1 {
				fmt.Fprintln(cmd.OutOrStdout(), "no agent is running")
				return nil
			}

			if err := unix.Kill(owner, unix.SIGTERM); err != nil {
				return fmt.Errorf("stopping agent (pid %d): %w", owner, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stopped agent (pid %d)\n", owner)
			return nil
		},
	}

	return cmd
}
