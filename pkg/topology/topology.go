// Package topology maintains the registry of the nodes of the system under test
// and resolves their hostnames to network addresses.
package topology

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation"
)

// ErrEmptyTopology is returned when a topology does not define any node
var ErrEmptyTopology = errors.New("topology does not define any node")

// Node is a node of the system under test
type Node struct {
	// Name uniquely identifies the node in the topology
	Name string `yaml:"-"`
	// Hostname is a DNS name or IP address where the node can be reached
	Hostname string `yaml:"hostname"`
	// Tags are free-form labels attached to the node
	Tags map[string]string `yaml:"tags,omitempty"`
}

// Topology maps node names to nodes
type Topology interface {
	// Node returns the node with the given name
	Node(name string) (Node, bool)
	// Names returns the names of all nodes, sorted
	Names() []string
}

// Static is an immutable Topology
type Static struct {
	nodes map[string]Node
}

// document is the serialized form of a topology
type document struct {
	Nodes map[string]Node `yaml:"nodes"`
}

// New returns a Static topology with the given nodes. Node names must be unique
// and hostnames must be valid.
func New(nodes ...Node) (*Static, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyTopology
	}

	t := &Static{nodes: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("node with hostname %q has no name", n.Hostname)
		}

		if _, found := t.nodes[n.Name]; found {
			return nil, fmt.Errorf("node %q is defined more than once", n.Name)
		}

		if err := ValidateHostname(n.Hostname); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}

		t.nodes[n.Name] = n
	}

	return t, nil
}

// Parse parses a topology document
func Parse(data []byte) (*Static, error) {
	doc := document{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing topology: %w", err)
	}

	nodes := make([]Node, 0, len(doc.Nodes))
	for name, n := range doc.Nodes {
		n.Name = name
		nodes = append(nodes, n)
	}

	// deterministic error reporting
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	return New(nodes...)
}

// Load reads a topology document from a file
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology: %w", err)
	}

	return Parse(data)
}

// Node implements Topology
func (t *Static) Node(name string) (Node, bool) {
	n, found := t.nodes[name]
	return n, found
}

// Names implements Topology
func (t *Static) Names() []string {
	names := make([]string, 0, len(t.nodes))
	for name := range t.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ValidateHostname checks the hostname is either an IP address or a DNS subdomain.
// DNS names are case insensitive.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return errors.New("hostname is empty")
	}

	if net.ParseIP(hostname) != nil {
		return nil
	}

	if errs := validation.IsDNS1123Subdomain(strings.ToLower(hostname)); len(errs) > 0 {
		return fmt.Errorf("invalid hostname %q: %s", hostname, strings.Join(errs, ", "))
	}

	return nil
}
