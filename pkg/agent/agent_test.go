package agent

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grafana/netsplit/pkg/fault"
	"github.com/grafana/netsplit/pkg/platform"
	"github.com/grafana/netsplit/pkg/runtime"
	"github.com/grafana/netsplit/pkg/topology"
	"github.com/stretchr/testify/require"
)

// fakeFault records the calls to Activate and Deactivate
type fakeFault struct {
	mtx         sync.Mutex
	activateErr error
	calls       []string
}

func (f *fakeFault) ID() string {
	return "fake"
}

func (f *fakeFault) Spec() fault.Spec {
	return fault.NoOpSpec{}
}

func (f *fakeFault) Activate(_ context.Context, _ platform.Platform) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.calls = append(f.calls, "activate")
	return f.activateErr
}

func (f *fakeFault) Deactivate(ctx context.Context, _ platform.Platform) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	// deactivation must run with a live context
	if ctx.Err() != nil {
		f.calls = append(f.calls, "deactivate-cancelled")
		return ctx.Err()
	}

	f.calls = append(f.calls, "deactivate")
	return nil
}

func (f *fakeFault) TargetNodes(topology.Topology) []string {
	return nil
}

func (f *fakeFault) Calls() []string {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return append([]string(nil), f.calls...)
}

func testAgent(t *testing.T, env *runtime.FakeRuntime) *Agent {
	t.Helper()

	topo, err := topology.New(
		topology.Node{Name: "n1", Hostname: "10.0.0.1"},
		topology.Node{Name: "n2", Hostname: "10.0.0.2"},
	)
	require.NoError(t, err)

	p, err := platform.New("n1", topo, platform.WithExecutor(env.Executor()))
	require.NoError(t, err)

	return BuildAgent(env, p, Config{DeactivateTimeout: time.Second})
}

func Test_CancelContext(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title    string
		duration time.Duration
		expected error
	}{
		{
			title:    "Fault is not canceled",
			duration: 100 * time.Millisecond,
			expected: nil,
		},
		{
			title:    "Fault is canceled",
			duration: 5 * time.Second,
			expected: context.Canceled,
		},
		{
			title:    "Fault without duration is canceled",
			duration: 0,
			expected: context.Canceled,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()
			env := runtime.NewFakeRuntime()
			agent := testAgent(t, env)

			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				time.Sleep(1 * time.Second)
				cancel()
			}()

			f := &fakeFault{}
			err := agent.Inject(ctx, f, tc.duration)
			if !errors.Is(err, tc.expected) {
				t.Errorf("expected %v got %v", tc.expected, err)
			}

			if diff := cmp.Diff([]string{"activate", "deactivate"}, f.Calls()); diff != "" {
				t.Errorf("unexpected calls:\n%s", diff)
			}

			if !env.FakeLock.Released() {
				t.Errorf("lock was not released")
			}
		})
	}
}

func Test_Signals(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title     string
		duration  time.Duration
		signal    syscall.Signal
		expectErr bool
	}{
		{
			title:     "Fault is canceled with interrupt",
			duration:  5 * time.Second,
			signal:    syscall.SIGINT,
			expectErr: true,
		},
		{
			title:     "Fault is canceled with terminate",
			duration:  0,
			signal:    syscall.SIGTERM,
			expectErr: true,
		},
		{
			title:     "Fault is not canceled",
			duration:  2 * time.Second,
			signal:    0,
			expectErr: false,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()
			env := runtime.NewFakeRuntime()
			agent := testAgent(t, env)

			go func() {
				time.Sleep(1 * time.Second)
				if tc.signal != 0 {
					env.FakeSignal.Send(tc.signal)
				}
			}()

			f := &fakeFault{}
			err := agent.Inject(context.TODO(), f, tc.duration)
			if tc.expectErr && err == nil {
				t.Errorf("should had failed")
				return
			}

			if !tc.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if diff := cmp.Diff([]string{"activate", "deactivate"}, f.Calls()); diff != "" {
				t.Errorf("unexpected calls:\n%s", diff)
			}
		})
	}
}

func Test_ActivationFailure(t *testing.T) {
	t.Parallel()

	env := runtime.NewFakeRuntime()
	agent := testAgent(t, env)

	activateErr := errors.New("iptables failed")
	f := &fakeFault{activateErr: activateErr}

	err := agent.Inject(context.TODO(), f, time.Hour)
	if !errors.Is(err, activateErr) {
		t.Fatalf("expected %v got %v", activateErr, err)
	}

	// partially applied rules are removed
	if diff := cmp.Diff([]string{"activate", "deactivate"}, f.Calls()); diff != "" {
		t.Errorf("unexpected calls:\n%s", diff)
	}
}

func Test_AgentAlreadyRunning(t *testing.T) {
	t.Parallel()

	env := runtime.NewFakeRuntime()
	env.FakeLock = runtime.NewBusyFakeLock(1)
	agent := testAgent(t, env)

	f := &fakeFault{}

	err := agent.Inject(context.TODO(), f, time.Second)
	if !errors.Is(err, ErrAgentRunning) {
		t.Fatalf("expected %v got %v", ErrAgentRunning, err)
	}

	err = agent.Activate(context.TODO(), f)
	if !errors.Is(err, ErrAgentRunning) {
		t.Fatalf("expected %v got %v", ErrAgentRunning, err)
	}

	if len(f.Calls()) != 0 {
		t.Fatalf("fault must not be touched, got calls %v", f.Calls())
	}
}

func Test_InjectNetworkPartition(t *testing.T) {
	t.Parallel()

	env := runtime.NewFakeRuntime()
	agent := testAgent(t, env)

	f, err := fault.New("partition", fault.NetworkPartitionSpec{
		Partitions: [][]string{{"n1"}, {"n2"}},
	})
	require.NoError(t, err)

	err = agent.Inject(context.TODO(), f, 100*time.Millisecond)
	require.NoError(t, err)

	expected := []string{
		"sudo iptables -A INPUT -p tcp -s 10.0.0.2 -j DROP -m comment --comment n2",
		"sudo iptables -D INPUT -p tcp -s 10.0.0.2 -j DROP -m comment --comment n2",
	}
	if diff := cmp.Diff(expected, env.FakeExecutor.CmdHistory()); diff != "" {
		t.Fatalf("Actual commands differ from expected:\n%s", diff)
	}
}

func Test_ActivateDeactivate(t *testing.T) {
	t.Parallel()

	env := runtime.NewFakeRuntime()
	agent := testAgent(t, env)

	f := &fakeFault{}
	require.NoError(t, agent.Activate(context.TODO(), f))
	require.NoError(t, agent.Deactivate(context.TODO(), f))

	if diff := cmp.Diff([]string{"activate", "deactivate"}, f.Calls()); diff != "" {
		t.Errorf("unexpected calls:\n%s", diff)
	}
}

func Test_InjectAt(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title       string
		start       time.Duration
		cancelAfter time.Duration
		expectError error
		expected    []string
	}{
		{
			title:    "start in the past",
			start:    -time.Hour,
			expected: []string{"activate", "deactivate"},
		},
		{
			title:    "start in the future",
			start:    200 * time.Millisecond,
			expected: []string{"activate", "deactivate"},
		},
		{
			title:       "cancelled before start",
			start:       time.Hour,
			cancelAfter: 100 * time.Millisecond,
			expectError: context.Canceled,
			expected:    nil,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			env := runtime.NewFakeRuntime()
			agent := testAgent(t, env)
			f := &fakeFault{}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tc.cancelAfter > 0 {
				time.AfterFunc(tc.cancelAfter, cancel)
			}

			begin := time.Now()
			err := agent.InjectAt(ctx, f, begin.Add(tc.start), 50*time.Millisecond)
			if !errors.Is(err, tc.expectError) {
				t.Fatalf("expected %v got %v", tc.expectError, err)
			}

			if tc.start > 0 && tc.expectError == nil && time.Since(begin) < tc.start {
				t.Fatalf("fault was injected before its start time")
			}

			if diff := cmp.Diff(tc.expected, f.Calls()); diff != "" {
				t.Errorf("unexpected calls:\n%s", diff)
			}
		})
	}
}
