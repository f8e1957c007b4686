// Package fault implements the faults that can be injected in the nodes of a system under test.
//
// A fault is built from its Spec by New, which validates the spec and fails with a
// *ConfigurationError if it is not valid. Once built, a fault is immutable: Activate and
// Deactivate recompute the commands to run in the current node every time they are called,
// so Deactivate reverses Activate without remembering what was applied.
package fault

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/grafana/netsplit/pkg/platform"
	"github.com/grafana/netsplit/pkg/topology"
	"github.com/sirupsen/logrus"
)

// Fault defines the operations of an injectable fault
type Fault interface {
	// ID returns the identifier of the fault
	ID() string
	// Spec returns the spec the fault was built from
	Spec() Spec
	// Activate injects the fault in the node the platform runs on
	Activate(ctx context.Context, p platform.Platform) error
	// Deactivate reverts the effect of Activate in the node the platform runs on
	Deactivate(ctx context.Context, p platform.Platform) error
	// TargetNodes returns the names of all the nodes affected by the fault, sorted
	TargetNodes(topo topology.Topology) []string
}

// Kind identifies the type of a fault
type Kind string

const (
	// KindNetworkPartition isolates groups of nodes from each other
	KindNetworkPartition Kind = "network-partition"
	// KindProcessStop suspends a process in a set of nodes
	KindProcessStop Kind = "process-stop"
	// KindNoOp does nothing
	KindNoOp Kind = "noop"
)

// Spec describes a fault
type Spec interface {
	// Kind returns the kind of fault described by the spec
	Kind() Kind
	// Start returns when the fault is meant to be activated
	Start() time.Time
	// Duration returns for how long the fault is meant to be active
	Duration() time.Duration
}

// Schedule defines when a fault is active. It is shared by all specs.
type Schedule struct {
	// StartMs is the activation time in milliseconds since the epoch
	StartMs int64 `yaml:"startMs,omitempty"`
	// DurationMs is the time the fault stays active, in milliseconds
	DurationMs int64 `yaml:"durationMs,omitempty"`
}

// Start returns the activation time
func (s Schedule) Start() time.Time {
	return time.UnixMilli(s.StartMs)
}

// Duration returns for how long the fault stays active
func (s Schedule) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// Option configures the faults built by New
type Option func(*options)

type options struct {
	sudo   bool
	logger logrus.FieldLogger
}

// WithSudo sets whether privileged commands are prefixed with sudo. Default is true.
func WithSudo(sudo bool) Option {
	return func(o *options) {
		o.sudo = sudo
	}
}

// WithLogger sets the logger used by the fault
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	o := options{
		sudo:   true,
		logger: silent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// New builds the fault described by the spec. If id is empty a random id is assigned.
func New(id string, spec Spec, opts ...Option) (Fault, error) {
	if id == "" {
		id = uuid.NewString()
	}

	switch s := spec.(type) {
	case NetworkPartitionSpec:
		return asFault(NewNetworkPartitionFault(id, s, opts...))
	case *NetworkPartitionSpec:
		return asFault(NewNetworkPartitionFault(id, *s, opts...))
	case ProcessStopSpec:
		return asFault(NewProcessStopFault(id, s, opts...))
	case *ProcessStopSpec:
		return asFault(NewProcessStopFault(id, *s, opts...))
	case NoOpSpec:
		return NewNoOpFault(id, s, opts...), nil
	case *NoOpSpec:
		return NewNoOpFault(id, *s, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported fault spec %T", spec)
	}
}

// asFault prevents returning a nil pointer wrapped in a non-nil Fault
func asFault[F Fault](f F, err error) (Fault, error) {
	if err != nil {
		return nil, err
	}

	return f, nil
}
