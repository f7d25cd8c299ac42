package fork

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-fork/errors"
)

// ExitPolicy decides what happens to running forks once run returns.
type ExitPolicy string

const (
	// ExitWait drains the registry before returning.
	ExitWait ExitPolicy = "wait"
	// ExitAbandon returns immediately and leaves running forks detached.
	ExitAbandon ExitPolicy = "abandon"
)

// ParseExitPolicy accepts "wait" or "abandon", case-insensitively.
func ParseExitPolicy(s string) (ExitPolicy, error) {
	switch p := ExitPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ExitWait, ExitAbandon:
		return p, nil
	default:
		return "", errors.InvalidInput(errors.PhaseConfig, "unknown exit policy "+s)
	}
}

// Shutdown applies policy and stops accepting new forks. With ExitWait and a
// positive timeout, draining stops after timeout. The returned error combines
// every failed fork, or reports that draining was cut short.
func (e *Executor) Shutdown(ctx context.Context, policy ExitPolicy, timeout time.Duration) error {
	switch policy {
	case ExitAbandon:
		e.abandon()
		return nil

	case ExitWait, "":
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := e.registry.Drain(ctx)
		e.closed.Store(true)
		if ctx.Err() != nil && err == ctx.Err() {
			e.logger.Warn("drain interrupted", zap.Int("running", len(e.registry.Running())))
			return errors.Wrap(errors.PhaseFork, errors.KindStillRunning, err, "forks still running at shutdown")
		}
		e.logger.Debug("registry drained", zap.Int("forks", e.registry.Len()))
		return err

	default:
		return errors.InvalidInput(errors.PhaseConfig, "unknown exit policy "+string(policy))
	}
}

// Abandon stops accepting forks and leaves the running ones detached. It
// reports them as a still_running error, or returns nil when none were left.
func (e *Executor) Abandon() error {
	pids := e.abandon()
	if len(pids) == 0 {
		return nil
	}
	return errors.New(errors.PhaseFork, errors.KindStillRunning).
		Value(pids).
		Detail("forks %v abandoned", pids).
		Build()
}

func (e *Executor) abandon() []uint32 {
	e.closed.Store(true)
	running := e.registry.Running()
	if len(running) == 0 {
		return nil
	}
	pids := make([]uint32, len(running))
	for i, pid := range running {
		pids[i] = uint32(pid)
	}
	e.logger.Warn("abandoning running forks", zap.Uint32s("pids", pids))
	return pids
}

// Terminate stops accepting forks and cancels the context forks run under.
// Guest code notices the cancellation only when the engine was created with
// CloseOnContextDone; otherwise running forks finish on their own.
func (e *Executor) Terminate() {
	e.closed.Store(true)
	e.cancel()
}
