package commands

import (
	"time"

	"github.com/grafana/netsplit/pkg/runtime"
	"github.com/spf13/cobra"
)

// BuildRunCmd builds the command that injects the fault described in a spec file
func BuildRunCmd(env runtime.Environment, opts *Options) *cobra.Command {
	var (
		specPath string
		id       string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "inject the fault described in a spec file",
		Long: "Waits until the startMs of the spec, activates the fault described in the spec file,\n" +
			"waits for the duration and deactivates it. A startMs in the past activates the fault at once.\n" +
			"If no duration is given, the durationMs of the spec is used. A zero duration keeps the fault\n" +
			"active until the agent is stopped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, logger, err := buildAgent(cmd, env, opts)
			if err != nil {
				return err
			}

			f, err := loadFault(specPath, id, opts, logger)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("duration") {
				duration = f.Spec().Duration()
			}

			return agent.InjectAt(cmd.Context(), f, f.Spec().Start(), duration)
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "path to the fault spec")
	cmd.Flags().StringVar(&id, "id", "", "identifier of the fault (random if not set)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "duration of the fault")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}
