package topology

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title       string
		document    string
		expectError bool
		expected    []Node
	}{
		{
			title: "valid topology",
			document: `
nodes:
  n2:
    hostname: 10.0.0.2
  n1:
    hostname: broker1.cluster.local
    tags:
      role: broker
`,
			expected: []Node{
				{Name: "n1", Hostname: "broker1.cluster.local", Tags: map[string]string{"role": "broker"}},
				{Name: "n2", Hostname: "10.0.0.2"},
			},
		},
		{
			title: "ipv6 hostname",
			document: `
nodes:
  n1:
    hostname: "fd00::1"
`,
			expected: []Node{
				{Name: "n1", Hostname: "fd00::1"},
			},
		},
		{
			title:       "empty document",
			document:    ``,
			expectError: true,
		},
		{
			title: "missing hostname",
			document: `
nodes:
  n1: {}
`,
			expectError: true,
		},
		{
			title: "invalid hostname",
			document: `
nodes:
  n1:
    hostname: Not_A_Host
`,
			expectError: true,
		},
		{
			title:       "malformed document",
			document:    `nodes: [`,
			expectError: true,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			topo, err := Parse([]byte(tc.document))
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			nodes := []Node{}
			for _, name := range topo.Names() {
				n, found := topo.Node(name)
				require.True(t, found)
				nodes = append(nodes, n)
			}

			if diff := cmp.Diff(tc.expected, nodes); diff != "" {
				t.Fatalf("nodes differ from expected:\n%s", diff)
			}
		})
	}
}

func Test_ValidateHostname(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title       string
		hostname    string
		expectError bool
	}{
		{
			title:    "ipv4",
			hostname: "10.0.0.1",
		},
		{
			title:    "lower case name",
			hostname: "broker1.example.com",
		},
		{
			title:    "mixed case name",
			hostname: "Broker1.Example.com",
		},
		{
			title:       "empty",
			hostname:    "",
			expectError: true,
		},
		{
			title:       "invalid characters",
			hostname:    "broker_1.example.com",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			err := ValidateHostname(tc.hostname)
			if tc.expectError != (err != nil) {
				t.Fatalf("expected error: %t got: %v", tc.expectError, err)
			}
		})
	}
}

func Test_New(t *testing.T) {
	t.Parallel()

	_, err := New()
	assert.ErrorIs(t, err, ErrEmptyTopology)

	_, err = New(Node{Name: "n1", Hostname: "10.0.0.1"}, Node{Name: "n1", Hostname: "10.0.0.2"})
	assert.Error(t, err, "duplicated node names must be rejected")

	_, err = New(Node{Hostname: "10.0.0.1"})
	assert.Error(t, err, "nodes without name must be rejected")

	topo, err := New(Node{Name: "n1", Hostname: "10.0.0.1"})
	require.NoError(t, err)

	_, found := topo.Node("n2")
	assert.False(t, found)
}

func Test_Load(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "topology.yaml")
	err := os.WriteFile(path, []byte("nodes:\n  n1:\n    hostname: 10.0.0.1\n"), 0o600)
	require.NoError(t, err)

	topo, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, topo.Names())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func Test_Resolve(t *testing.T) {
	t.Parallel()

	resolver := StaticResolver{
		"dual.local":  {"fd00::1", "10.0.0.9", "10.0.0.2"},
		"ipv6.local":  {"fd00::2", "fd00::1"},
		"empty.local": {},
	}

	testCases := []struct {
		title       string
		hostname    string
		expected    string
		expectError bool
		notFound    bool
	}{
		{
			title:    "ip literal",
			hostname: "192.168.1.1",
			expected: "192.168.1.1",
		},
		{
			title:    "prefer lowest ipv4",
			hostname: "dual.local",
			expected: "10.0.0.2",
		},
		{
			title:    "only ipv6",
			hostname: "ipv6.local",
			expected: "fd00::1",
		},
		{
			title:       "no addresses",
			hostname:    "empty.local",
			expectError: true,
			notFound:    true,
		},
		{
			title:       "unknown host",
			hostname:    "unknown.local",
			expectError: true,
			notFound:    true,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			addr, err := Resolve(context.TODO(), resolver, tc.hostname)
			if tc.expectError {
				require.Error(t, err)
				assert.Equal(t, tc.notFound, IsNotFound(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, addr)
		})
	}
}

func Test_IsNotFound(t *testing.T) {
	t.Parallel()

	assert.False(t, IsNotFound(errors.New("other")))
	assert.False(t, IsNotFound(nil))
}
