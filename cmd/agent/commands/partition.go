package commands

import (
	"strings"
	"time"

	"github.com/grafana/netsplit/pkg/fault"
	"github.com/grafana/netsplit/pkg/runtime"
	"github.com/spf13/cobra"
)

// BuildPartitionCmd builds the command that injects a network partition defined by flags
func BuildPartitionCmd(env runtime.Environment, opts *Options) *cobra.Command {
	var (
		groups   []string
		id       string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "partition",
		Short: "partition the network between groups of nodes",
		Long: "Drops the tcp traffic coming from the nodes that are not in the same partition as the local node.\n" +
			"Each partition is given as a comma separated list of nodes, e.g. -p n1,n2 -p n3",
		Example: "  netsplit-agent partition -p broker1,broker2 -p broker3 -d 30s",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, logger, err := buildAgent(cmd, env, opts)
			if err != nil {
				return err
			}

			spec := fault.NetworkPartitionSpec{
				Schedule: fault.Schedule{
					StartMs:    time.Now().UnixMilli(),
					DurationMs: duration.Milliseconds(),
				},
				Partitions: parsePartitions(groups),
			}

			f, err := fault.New(id, spec, opts.FaultOptions(logger)...)
			if err != nil {
				return err
			}

			return agent.Inject(cmd.Context(), f, duration)
		},
	}

	cmd.Flags().StringArrayVarP(&groups, "partition", "p", nil, "comma separated list of the nodes in a partition")
	cmd.Flags().StringVar(&id, "id", "", "identifier of the fault (random if not set)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "duration of the partition (0 means until stopped)")
	_ = cmd.MarkFlagRequired("partition")

	return cmd
}

func parsePartitions(groups []string) [][]string {
	partitions := make([][]string, 0, len(groups))
	for _, g := range groups {
		nodes := strings.Split(g, ",")
		for i := range nodes {
			nodes[i] = strings.TrimSpace(nodes[i])
		}
		partitions = append(partitions, nodes)
	}

	return partitions
}
