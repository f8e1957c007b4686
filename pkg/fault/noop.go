package fault

import (
	"context"

	"github.com/grafana/netsplit/pkg/platform"
	"github.com/grafana/netsplit/pkg/topology"
	"github.com/sirupsen/logrus"
)

// NoOpSpec describes a fault that has no effect
type NoOpSpec struct {
	Schedule `yaml:",inline"`
}

// Kind implements Spec
func (NoOpSpec) Kind() Kind {
	return KindNoOp
}

// NoOpFault only logs its activation. It is useful for testing the scheduling of faults.
type NoOpFault struct {
	id     string
	spec   NoOpSpec
	logger logrus.FieldLogger
}

// NewNoOpFault returns a NoOpFault
func NewNoOpFault(id string, spec NoOpSpec, opts ...Option) *NoOpFault {
	o := buildOptions(opts)

	return &NoOpFault{
		id:     id,
		spec:   spec,
		logger: o.logger.WithFields(logrus.Fields{"fault": id, "kind": KindNoOp}),
	}
}

// ID implements Fault
func (f *NoOpFault) ID() string {
	return f.id
}

// Spec implements Fault
func (f *NoOpFault) Spec() Spec {
	return f.spec
}

// Activate implements Fault
func (f *NoOpFault) Activate(_ context.Context, p platform.Platform) error {
	f.logger.WithField("node", p.CurNode().Name).Info("activating noop fault")
	return nil
}

// Deactivate implements Fault
func (f *NoOpFault) Deactivate(_ context.Context, p platform.Platform) error {
	f.logger.WithField("node", p.CurNode().Name).Info("deactivating noop fault")
	return nil
}

// TargetNodes implements Fault. It targets all nodes in the topology.
func (f *NoOpFault) TargetNodes(topo topology.Topology) []string {
	return topo.Names()
}
