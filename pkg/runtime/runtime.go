// Package runtime abstracts the execution environment of the agent process
package runtime

// Environment abstracts the execution environment of a process.
// It allows introduction mocks for testing.
type Environment interface {
	// Executor returns a process executor that abstracts os/exec
	Executor() Executor
	// Lock returns the execution lock that prevents concurrent agents
	Lock() Lock
	// Signal returns the signal handler of the process
	Signal() Signals
}

// environment keeps the state of the execution environment
type environment struct {
	executor Executor
	lock     Lock
	signals  Signals
}

// DefaultEnvironment returns the default execution environment
func DefaultEnvironment() Environment {
	return environment{
		executor: DefaultExecutor(),
		lock:     DefaultLock(),
		signals:  DefaultSignals(),
	}
}

func (e environment) Executor() Executor {
	return e.executor
}

func (e environment) Lock() Lock {
	return e.lock
}

func (e environment) Signal() Signals {
	return e.signals
}
