// Package platform implements the execution platform of a fault in a node: it knows the
// identity of the local node, resolves the addresses of its peers and runs commands.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/grafana/netsplit/pkg/runtime"
	"github.com/grafana/netsplit/pkg/topology"
	"github.com/sirupsen/logrus"
)

// Platform defines the capabilities required by faults
type Platform interface {
	// CurNode returns the node where the platform is running
	CurNode() topology.Node
	// Topology returns the registry of all nodes
	Topology() topology.Topology
	// ResolveAddress returns the network address of the node
	ResolveAddress(ctx context.Context, name string) (string, error)
	// RunCommand executes a command in the local node and returns its combined output
	RunCommand(ctx context.Context, argv []string) (string, error)
}

// ResolutionError is returned when the address of a node cannot be determined
type ResolutionError struct {
	Node     string
	Hostname string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Hostname == "" {
		return fmt.Sprintf("resolving node %q: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("resolving node %q (%s): %v", e.Node, e.Hostname, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ExecutionError is returned when a command cannot be launched or exits with an error
type ExecutionError struct {
	Argv   []string
	Output string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("running %q: %v: %q", strings.Join(e.Argv, " "), e.Err, e.Output)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ErrUnknownNode is returned when a node is not defined in the topology
var ErrUnknownNode = errors.New("node not found in topology")

// Option configures a Basic platform
type Option func(*Basic)

// WithResolver sets the resolver used for node hostnames
func WithResolver(resolver topology.Resolver) Option {
	return func(b *Basic) {
		b.resolver = resolver
	}
}

// WithExecutor sets the executor used for running commands
func WithExecutor(executor runtime.Executor) Option {
	return func(b *Basic) {
		b.executor = executor
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(b *Basic) {
		b.logger = logger
	}
}

// Basic is a Platform that runs commands in the local host
type Basic struct {
	node     topology.Node
	topology topology.Topology
	resolver topology.Resolver
	executor runtime.Executor
	logger   logrus.FieldLogger
}

// New returns a Basic platform for the given node. The node must be defined in the topology.
func New(node string, topo topology.Topology, opts ...Option) (*Basic, error) {
	n, found := topo.Node(node)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, node)
	}

	silent := logrus.New()
	silent.SetOutput(io.Discard)

	b := &Basic{
		node:     n,
		topology: topo,
		resolver: topology.DefaultResolver(),
		executor: runtime.DefaultExecutor(),
		logger:   silent,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.logger = b.logger.WithField("node", n.Name)

	return b, nil
}

// CurNode implements Platform
func (b *Basic) CurNode() topology.Node {
	return b.node
}

// Topology implements Platform
func (b *Basic) Topology() topology.Topology {
	return b.topology
}

// ResolveAddress implements Platform
func (b *Basic) ResolveAddress(ctx context.Context, name string) (string, error) {
	n, found := b.topology.Node(name)
	if !found {
		return "", &ResolutionError{Node: name, Err: ErrUnknownNode}
	}

	addr, err := topology.Resolve(ctx, b.resolver, n.Hostname)
	if err != nil {
		return "", &ResolutionError{Node: name, Hostname: n.Hostname, Err: err}
	}

	b.logger.WithFields(logrus.Fields{"peer": name, "address": addr}).Debug("resolved peer address")

	return addr, nil
}

// RunCommand implements Platform
func (b *Basic) RunCommand(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", &ExecutionError{Err: errors.New("empty command")}
	}

	b.logger.WithField("command", strings.Join(argv, " ")).Debug("running command")

	out, err := b.executor.Exec(ctx, argv[0], argv[1:]...)
	if err != nil {
		return string(out), &ExecutionError{Argv: argv, Output: string(out), Err: err}
	}

	return string(out), nil
}
