package fault

import (
	"context"

	"github.com/grafana/netsplit/pkg/platform"
	"github.com/grafana/netsplit/pkg/topology"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"
)

// ProcessStopSpec describes the suspension of a process in a set of nodes
type ProcessStopSpec struct {
	Schedule `yaml:",inline"`
	// NodeNames are the nodes where the process is stopped
	NodeNames []string `yaml:"nodeNames"`
	// ProcessName is a pattern matched against the full command line of the processes
	ProcessName string `yaml:"processName"`
}

// Kind implements Spec
func (ProcessStopSpec) Kind() Kind {
	return KindProcessStop
}

// ProcessStopFault sends SIGSTOP to the matching processes on activation and SIGCONT on deactivation
type ProcessStopFault struct {
	id     string
	spec   ProcessStopSpec
	nodes  sets.Set[string]
	sudo   bool
	logger logrus.FieldLogger
}

// NewProcessStopFault returns a ProcessStopFault or a *ConfigurationError if the spec is not valid
func NewProcessStopFault(id string, spec ProcessStopSpec, opts ...Option) (*ProcessStopFault, error) {
	if spec.ProcessName == "" {
		return nil, &ConfigurationError{Reason: "process name cannot be empty"}
	}

	nodes := sets.New[string]()
	for _, node := range spec.NodeNames {
		if node == "" {
			return nil, &ConfigurationError{Reason: "node names cannot be empty"}
		}
		if nodes.Has(node) {
			return nil, &ConfigurationError{Node: node, Reason: "is listed more than once"}
		}
		nodes.Insert(node)
	}

	o := buildOptions(opts)

	return &ProcessStopFault{
		id:     id,
		spec:   spec,
		nodes:  nodes,
		sudo:   o.sudo,
		logger: o.logger.WithFields(logrus.Fields{"fault": id, "kind": KindProcessStop}),
	}, nil
}

// ID implements Fault
func (f *ProcessStopFault) ID() string {
	return f.id
}

// Spec implements Fault
func (f *ProcessStopFault) Spec() Spec {
	return f.spec
}

// Activate implements Fault
func (f *ProcessStopFault) Activate(ctx context.Context, p platform.Platform) error {
	return f.signal(ctx, p, "SIGSTOP")
}

// Deactivate implements Fault
func (f *ProcessStopFault) Deactivate(ctx context.Context, p platform.Platform) error {
	return f.signal(ctx, p, "SIGCONT")
}

func (f *ProcessStopFault) signal(ctx context.Context, p platform.Platform, signal string) error {
	node := p.CurNode().Name
	if !f.nodes.Has(node) {
		f.logger.WithField("node", node).Debug("node is not targeted by the fault")
		return nil
	}

	f.logger.WithFields(logrus.Fields{
		"node":    node,
		"process": f.spec.ProcessName,
		"signal":  signal,
	}).Info("signaling processes")

	argv := []string{"pkill", "-" + signal, "-f", f.spec.ProcessName}
	if f.sudo {
		argv = append([]string{"sudo"}, argv...)
	}

	_, err := p.RunCommand(ctx, argv)
	return err
}

// TargetNodes implements Fault
func (f *ProcessStopFault) TargetNodes(_ topology.Topology) []string {
	return sets.List(f.nodes)
}
