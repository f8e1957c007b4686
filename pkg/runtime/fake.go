package runtime

import (
	"context"
	"os"
	"strings"
	"sync"
)

// FakeExecutor is an instance of an Executor that keeps the history
// of commands for inspection and returns the predefined results.
// Even when it allows multiple invocations to Exec, it only allows
// setting one err and output which are returned on each call. If different
// results are needed for each invocation, [CallbackExecutor] may a
// better alternative
type FakeExecutor struct {
	mtx      sync.Mutex
	commands []string
	err      error
	output   []byte
}

// NewFakeExecutor creates a new instance of a FakeExecutor
func NewFakeExecutor(output []byte, err error) *FakeExecutor {
	return &FakeExecutor{
		err:    err,
		output: output,
	}
}

func (p *FakeExecutor) updateHistory(cmd string, args ...string) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.commands = append(p.commands, strings.Join(append([]string{cmd}, args...), " "))
}

// Exec records the command and returns the predefined output and error
func (p *FakeExecutor) Exec(_ context.Context, cmd string, args ...string) ([]byte, error) {
	p.updateHistory(cmd, args...)
	return p.output, p.err
}

// Invoked indicates if the Exec command was invoked at least once
func (p *FakeExecutor) Invoked() bool {
	return p.Invocations() > 0
}

// Cmd returns the last command passed to Exec
func (p *FakeExecutor) Cmd() string {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if len(p.commands) == 0 {
		return ""
	}
	return p.commands[len(p.commands)-1]
}

// CmdHistory returns a copy of the history of commands executed, each one
// with its arguments joined by a space
func (p *FakeExecutor) CmdHistory() []string {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return append([]string(nil), p.commands...)
}

// Invocations returns the number of invocations to the Exec function
func (p *FakeExecutor) Invocations() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return len(p.commands)
}

// Reset clears the history of invocations
func (p *FakeExecutor) Reset() {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.commands = nil
}

// ExecCallback defines a function that can receive the forward of an Exec invocation
// The function must return the output of the invocation and the execution error, if any
type ExecCallback func(cmd string, args ...string) ([]byte, error)

// CallbackExecutor is fake process Executor that forwards the invocations
// to a function that can dynamically return error and output.
type CallbackExecutor struct {
	FakeExecutor
	callback ExecCallback
}

// Exec forwards invocation to the callback
func (c *CallbackExecutor) Exec(_ context.Context, cmd string, args ...string) ([]byte, error) {
	c.FakeExecutor.updateHistory(cmd, args...)
	return c.callback(cmd, args...)
}

// NewCallbackExecutor returns an instance of a CallbackExecutor
func NewCallbackExecutor(callback ExecCallback) *CallbackExecutor {
	return &CallbackExecutor{
		callback: callback,
	}
}

// FakeLock implements a Lock for testing
type FakeLock struct {
	mtx      sync.Mutex
	locked   bool
	busy     bool
	released bool
	owner    int
}

// NewFakeLock returns a free FakeLock
func NewFakeLock() *FakeLock {
	return &FakeLock{owner: -1}
}

// NewBusyFakeLock returns a FakeLock held by another process
func NewBusyFakeLock(owner int) *FakeLock {
	return &FakeLock{busy: true, owner: owner}
}

// Acquire implements Acquire method from Lock interface
func (p *FakeLock) Acquire() (bool, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.busy {
		return false, nil
	}

	p.locked = true
	p.owner = os.Getpid()
	return true, nil
}

// Release implements Release method from Lock interface
func (p *FakeLock) Release() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.released = true
	p.locked = false
	p.owner = -1
	return nil
}

// Owner implements Owner method from Lock interface
func (p *FakeLock) Owner() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.owner
}

// Released returns true if the lock was released at least once
func (p *FakeLock) Released() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.released
}

// FakeSignal implements a fake signal handling for testing
type FakeSignal struct {
	channel chan os.Signal
}

// NewFakeSignal returns a FakeSignal
func NewFakeSignal() *FakeSignal {
	return &FakeSignal{
		channel: make(chan os.Signal),
	}
}

// Notify implements Signal's interface Notify method
func (f *FakeSignal) Notify(_ ...os.Signal) <-chan os.Signal {
	return f.channel
}

// Reset implements Signal's interface Reset method. It is noop.
func (f *FakeSignal) Reset(_ ...os.Signal) {
	// noop
}

// Send sends the given signal to the signal notification channel
func (f *FakeSignal) Send(signal os.Signal) {
	f.channel <- signal
}

// FakeRuntime holds the state of a fake runtime for testing
type FakeRuntime struct {
	FakeExecutor *FakeExecutor
	FakeLock     *FakeLock
	FakeSignal   *FakeSignal
}

// NewFakeRuntime creates a default FakeRuntime
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{
		FakeExecutor: NewFakeExecutor(nil, nil),
		FakeLock:     NewFakeLock(),
		FakeSignal:   NewFakeSignal(),
	}
}

// Executor implements Executor method from Environment interface
func (f *FakeRuntime) Executor() Executor {
	return f.FakeExecutor
}

// Lock implements Lock method from Environment interface
func (f *FakeRuntime) Lock() Lock {
	return f.FakeLock
}

// Signal implements Signal method from Environment interface
func (f *FakeRuntime) Signal() Signals {
	return f.FakeSignal
}
