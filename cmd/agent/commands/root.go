package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/grafana/netsplit/pkg/agent"
	"github.com/grafana/netsplit/pkg/fault"
	"github.com/grafana/netsplit/pkg/platform"
	"github.com/grafana/netsplit/pkg/runtime"
	"github.com/grafana/netsplit/pkg/topology"
	"github.com/grafana/netsplit/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Options are the settings shared by all the commands
type Options struct {
	// Topology is the path to the topology file
	Topology string
	// Node is the name of the local node in the topology
	Node string
	// Sudo indicates if privileged commands must be run with sudo
	Sudo bool
	// DeactivateTimeout limits the deactivation of a fault when the agent is stopped
	DeactivateTimeout time.Duration
	LogLevel          string
	LogFormat         string
}

// BuildRootCmd builds the root command for the agent with all the persistent flags.
// Defaults can be set with environment variables.
func BuildRootCmd(opts *Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netsplit-agent",
		Short: "Inject network partitions in the nodes of a cluster",
		Long: "A command for injecting faults in the node of a cluster where it runs.\n" +
			"Network partitions are enforced with iptables rules and require either to be run as root,\n" +
			"or with sudo rights to run iptables.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.Topology, "topology", utils.GetStringEnvVar("NETSPLIT_TOPOLOGY", "topology.yaml"),
		"path to the topology file")
	flags.StringVar(&opts.Node, "node", utils.GetStringEnvVar("NETSPLIT_NODE", utils.Hostname("")),
		"name of the local node in the topology")
	flags.BoolVar(&opts.Sudo, "sudo", utils.GetBooleanEnvVar("NETSPLIT_SUDO", true),
		"run privileged commands with sudo")
	flags.DurationVar(&opts.DeactivateTimeout, "deactivate-timeout",
		utils.GetDurationEnvVar("NETSPLIT_DEACTIVATE_TIMEOUT", agent.DefaultDeactivateTimeout),
		"maximum time for deactivating a fault when the agent is stopped")
	flags.StringVar(&opts.LogLevel, "log-level", utils.GetStringEnvVar("NETSPLIT_LOG_LEVEL", "info"),
		"log level (debug, info, warn, error)")
	flags.StringVar(&opts.LogFormat, "log-format", utils.GetStringEnvVar("NETSPLIT_LOG_FORMAT", "text"),
		"log format (text, json)")

	return rootCmd
}

// Logger returns a logger configured with the log options that writes to out
func (o *Options) Logger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(o.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)

	switch strings.ToLower(o.LogFormat) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", o.LogFormat)
	}

	return logger, nil
}

// FaultOptions returns the options for building faults
func (o *Options) FaultOptions(logger logrus.FieldLogger) []fault.Option {
	return []fault.Option{
		fault.WithSudo(o.Sudo),
		fault.WithLogger(logger),
	}
}

// buildAgent loads the topology and returns an agent for the local node
func buildAgent(cmd *cobra.Command, env runtime.Environment, opts *Options) (*agent.Agent, logrus.FieldLogger, error) {
	logger, err := opts.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	topo, err := topology.Load(opts.Topology)
	if err != nil {
		return nil, nil, err
	}

	p, err := platform.New(
		opts.Node,
		topo,
		platform.WithExecutor(env.Executor()),
		platform.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}

	config := agent.Config{
		DeactivateTimeout: opts.DeactivateTimeout,
		Logger:            logger,
	}

	return agent.BuildAgent(env, p, config), logger, nil
}

// loadFault reads the spec and builds the fault
func loadFault(path string, id string, opts *Options, logger logrus.FieldLogger) (fault.Fault, error) {
	spec, err := fault.LoadSpec(path)
	if err != nil {
		return nil, err
	}

	return fault.New(id, spec, opts.FaultOptions(logger)...)
}
