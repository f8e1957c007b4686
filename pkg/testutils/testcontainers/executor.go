// Package testcontainers implements utility functions for running tests with TestContainers
package testcontainers

import (
	"context"
	"fmt"
	"io"

	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
)

// Executor runs commands inside a container. It implements runtime.Executor.
type Executor struct {
	container testcontainers.Container
}

// NewExecutor returns an Executor for the container
func NewExecutor(container testcontainers.Container) *Executor {
	return &Executor{container: container}
}

// Exec runs the command in the container and returns its combined output
func (e *Executor) Exec(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	code, reader, err := e.container.Exec(ctx, append([]string{cmd}, args...), tcexec.Multiplexed())
	if err != nil {
		return nil, err
	}

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading output of %q: %w", cmd, err)
	}

	if code != 0 {
		return out, fmt.Errorf("exit status %d", code)
	}

	return out, nil
}
