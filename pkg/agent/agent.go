// Package agent injects faults in the node where it runs
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/grafana/netsplit/pkg/fault"
	"github.com/grafana/netsplit/pkg/platform"
	"github.com/grafana/netsplit/pkg/runtime"
	"github.com/sirupsen/logrus"
)

// ErrAgentRunning is returned when another agent holds the execution lock
var ErrAgentRunning = errors.New("another instance of the agent is already running")

// DefaultDeactivateTimeout limits the time spent deactivating a fault after the agent is cancelled
const DefaultDeactivateTimeout = 30 * time.Second

// Config maintains the configuration for the execution of the agent
type Config struct {
	// DeactivateTimeout limits the deactivation of the fault. Zero means no limit.
	DeactivateTimeout time.Duration
	Logger            logrus.FieldLogger
}

// Agent maintains the state required for injecting faults
type Agent struct {
	env      runtime.Environment
	platform platform.Platform
	config   Config
	logger   logrus.FieldLogger
}

// BuildAgent builds a instance of an agent
func BuildAgent(env runtime.Environment, p platform.Platform, config Config) *Agent {
	logger := config.Logger
	if logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		logger = silent
	}

	return &Agent{
		env:      env,
		platform: p,
		config:   config,
		logger:   logger,
	}
}

// Inject activates the fault, keeps it active for the given duration and deactivates it.
// If duration is zero, the fault stays active until the context is cancelled or the
// process receives a termination signal. The fault is deactivated in all cases, even
// if its activation failed, to remove any partially applied change.
func (a *Agent) Inject(ctx context.Context, f fault.Fault, duration time.Duration) error {
	sc := a.env.Signal().Notify(syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer func() {
		a.env.Signal().Reset()
	}()

	release, err := a.acquire()
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// inject in a goroutine so signals can cancel it
	cc := make(chan error, 1)
	go func() {
		cc <- a.inject(ctx, f, duration)
	}()

	select {
	case err := <-cc:
		return err
	case s := <-sc:
		a.logger.WithField("signal", s.String()).Warn("received signal, deactivating fault")
		cancel()

		err := <-cc
		if err == nil || errors.Is(err, context.Canceled) {
			return fmt.Errorf("received signal %q", s)
		}
		return fmt.Errorf("received signal %q: %w", s, err)
	}
}

// InjectAt waits until start and then injects the fault as Inject does. A start time
// in the past injects the fault at once.
func (a *Agent) InjectAt(ctx context.Context, f fault.Fault, start time.Time, duration time.Duration) error {
	if delay := time.Until(start); delay > 0 {
		a.log(f).WithField("start", start.Format(time.RFC3339Nano)).Info("waiting for fault start")
		if err := wait(ctx, delay); err != nil {
			return err
		}
	}

	return a.Inject(ctx, f, duration)
}

// Activate activates the fault and returns. The fault must be deactivated later with Deactivate.
func (a *Agent) Activate(ctx context.Context, f fault.Fault) error {
	release, err := a.acquire()
	if err != nil {
		return err
	}
	defer release()

	a.log(f).Info("activating fault")

	if err := f.Activate(ctx, a.platform); err != nil {
		return fmt.Errorf("activating fault %q: %w", f.ID(), err)
	}

	return nil
}

// Deactivate deactivates a fault previously activated with Activate
func (a *Agent) Deactivate(ctx context.Context, f fault.Fault) error {
	release, err := a.acquire()
	if err != nil {
		return err
	}
	defer release()

	return a.deactivate(ctx, f)
}

func (a *Agent) acquire() (func(), error) {
	acquired, err := a.env.Lock().Acquire()
	if err != nil {
		return nil, fmt.Errorf("could not acquire process lock: %w", err)
	}
	if !acquired {
		return nil, ErrAgentRunning
	}

	return func() {
		if err := a.env.Lock().Release(); err != nil {
			a.logger.WithError(err).Warn("releasing process lock")
		}
	}, nil
}

func (a *Agent) inject(ctx context.Context, f fault.Fault, duration time.Duration) error {
	a.log(f).WithField("duration", duration.String()).Info("activating fault")

	if err := f.Activate(ctx, a.platform); err != nil {
		if derr := a.restore(ctx, f); derr != nil {
			a.log(f).WithError(derr).Warn("could not clean up partially activated fault")
		}
		return fmt.Errorf("activating fault %q: %w", f.ID(), err)
	}

	err := wait(ctx, duration)

	return errors.Join(err, a.restore(ctx, f))
}

// restore deactivates the fault even if ctx is already cancelled
func (a *Agent) restore(ctx context.Context, f fault.Fault) error {
	ctx = context.WithoutCancel(ctx)
	if a.config.DeactivateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.DeactivateTimeout)
		defer cancel()
	}

	return a.deactivate(ctx, f)
}

func (a *Agent) deactivate(ctx context.Context, f fault.Fault) error {
	a.log(f).Info("deactivating fault")

	if err := f.Deactivate(ctx, a.platform); err != nil {
		return fmt.Errorf("deactivating fault %q: %w", f.ID(), err)
	}

	return nil
}

func (a *Agent) log(f fault.Fault) logrus.FieldLogger {
	return a.logger.WithFields(logrus.Fields{
		"fault": f.ID(),
		"kind":  f.Spec().Kind(),
		"node":  a.platform.CurNode().Name,
	})
}

// wait returns when the duration expires or ctx is done. A zero duration waits for ctx.
func wait(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
