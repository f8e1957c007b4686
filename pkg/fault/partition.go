package fault

import (
	"context"
	"strings"

	"github.com/grafana/netsplit/pkg/iptables"
	"github.com/grafana/netsplit/pkg/platform"
	"github.com/grafana/netsplit/pkg/topology"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"
)

// NetworkPartitionSpec describes a network partition: nodes in a group can reach
// each other but not the nodes in other groups.
type NetworkPartitionSpec struct {
	Schedule `yaml:",inline"`
	// Partitions are the groups of node names. A node may appear in at most one group.
	Partitions [][]string `yaml:"partitions"`
}

// Kind implements Spec
func (NetworkPartitionSpec) Kind() Kind {
	return KindNetworkPartition
}

// PartitionSet is a validated list of disjoint partitions
type PartitionSet struct {
	partitions []sets.Set[string]
	// partition each node belongs to
	index map[string]int
}

// NewPartitionSet validates the groups and returns them as a PartitionSet.
// Fails with a *ConfigurationError if a node appears more than once.
func NewPartitionSet(groups [][]string) (*PartitionSet, error) {
	ps := &PartitionSet{
		partitions: make([]sets.Set[string], 0, len(groups)),
		index:      map[string]int{},
	}

	for i, group := range groups {
		for _, node := range group {
			if node == "" {
				return nil, &ConfigurationError{Reason: "partitions cannot contain empty node names"}
			}

			if _, seen := ps.index[node]; seen {
				return nil, &ConfigurationError{Node: node, Reason: "appears in more than one partition"}
			}

			ps.index[node] = i
		}

		ps.partitions = append(ps.partitions, sets.New(group...))
	}

	return ps, nil
}

// Len returns the number of partitions
func (ps *PartitionSet) Len() int {
	return len(ps.partitions)
}

// PartitionOf returns the index of the partition the node belongs to
func (ps *PartitionSet) PartitionOf(node string) (int, bool) {
	i, found := ps.index[node]
	return i, found
}

// Members returns the nodes of all partitions, sorted
func (ps *PartitionSet) Members() []string {
	return sets.List(sets.KeySet(ps.index))
}

// BlockedBy returns the sorted list of nodes the given node must block: the members
// of every partition the node does not belong to. A node that is not in any
// partition blocks the members of all of them.
func (ps *PartitionSet) BlockedBy(node string) []string {
	blocked := sets.New[string]()

	own, member := ps.index[node]
	for i, partition := range ps.partitions {
		if member && i == own {
			continue
		}
		blocked = blocked.Union(partition)
	}

	return sets.List(blocked)
}

// NetworkPartitionFault partitions the network by dropping, in every node, the tcp traffic
// coming from the nodes in other partitions.
type NetworkPartitionFault struct {
	id         string
	spec       NetworkPartitionSpec
	partitions *PartitionSet
	sudo       bool
	logger     logrus.FieldLogger
}

// NewNetworkPartitionFault returns a NetworkPartitionFault for the spec, or a
// *ConfigurationError if the partitions are not disjoint.
func NewNetworkPartitionFault(id string, spec NetworkPartitionSpec, opts ...Option) (*NetworkPartitionFault, error) {
	partitions, err := NewPartitionSet(spec.Partitions)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)

	return &NetworkPartitionFault{
		id:         id,
		spec:       spec,
		partitions: partitions,
		sudo:       o.sudo,
		logger:     o.logger.WithFields(logrus.Fields{"fault": id, "kind": KindNetworkPartition}),
	}, nil
}

// ID implements Fault
func (f *NetworkPartitionFault) ID() string {
	return f.id
}

// Spec implements Fault
func (f *NetworkPartitionFault) Spec() Spec {
	return f.spec
}

// Partitions returns the validated partitions of the fault
func (f *NetworkPartitionFault) Partitions() *PartitionSet {
	return f.partitions
}

// Activate adds a rule dropping the traffic from each node the current node must block.
// Calling Activate again before Deactivate adds duplicated rules.
func (f *NetworkPartitionFault) Activate(ctx context.Context, p platform.Platform) error {
	return f.apply(ctx, p, "activating", (*iptables.Iptables).Append)
}

// Deactivate deletes the rules added by Activate
func (f *NetworkPartitionFault) Deactivate(ctx context.Context, p platform.Platform) error {
	return f.apply(ctx, p, "deactivating", (*iptables.Iptables).Delete)
}

type ruleAction func(*iptables.Iptables, context.Context, iptables.Rule) error

// apply runs the action for the rule of each blocked peer, in order. It stops at the first error.
func (f *NetworkPartitionFault) apply(ctx context.Context, p platform.Platform, verb string, action ruleAction) error {
	node := p.CurNode().Name
	blocked := f.partitions.BlockedBy(node)

	f.logger.WithFields(logrus.Fields{
		"node":    node,
		"blocked": strings.Join(blocked, ","),
	}).Infof("%s network partition", verb)

	ipt := iptables.New(p, f.sudo)
	for _, peer := range blocked {
		addr, err := p.ResolveAddress(ctx, peer)
		if err != nil {
			return err
		}

		if err := action(ipt, ctx, iptables.DropFrom(addr, peer)); err != nil {
			return err
		}
	}

	return nil
}

// TargetNodes implements Fault. It returns the members of all partitions.
func (f *NetworkPartitionFault) TargetNodes(_ topology.Topology) []string {
	return f.partitions.Members()
}
