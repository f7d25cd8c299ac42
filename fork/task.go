package fork

import (
	"sync"
	"time"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

// State is the lifecycle state of a Task.
type State int

const (
	StateRunning State = iota
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task tracks one forked execution.
type Task struct {
	started    time.Time
	finished   time.Time
	err        error
	done       chan struct{}
	result     int64
	PayloadLen int
	mu         sync.Mutex
	state      State
	PID        abi.PID
	Parent     abi.PID
	Entry      uint32
}

func newTask(pid, parent abi.PID, entry uint32, payloadLen int) *Task {
	return &Task{
		PID:        pid,
		Parent:     parent,
		Entry:      entry,
		PayloadLen: payloadLen,
		started:    time.Now(),
		done:       make(chan struct{}),
	}
}

// Done is closed once the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns invoke's return value, the task's failure, or a
// still_running error.
func (t *Task) Result() (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateRunning:
		return 0, errors.StillRunning(uint32(t.PID))
	case StateFailed:
		return 0, t.err
	default:
		return t.result, nil
	}
}

// Err returns the failure of a failed task, nil otherwise.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Elapsed is the run time so far, or the total once finished.
func (t *Task) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateRunning {
		return time.Since(t.started)
	}
	return t.finished.Sub(t.started)
}

// finish records the outcome. Only the first call has any effect.
func (t *Task) finish(result int64, err error) bool {
	t.mu.Lock()
	if t.state != StateRunning {
		t.mu.Unlock()
		return false
	}
	t.finished = time.Now()
	if err != nil {
		t.state = StateFailed
		t.err = err
	} else {
		t.state = StateSucceeded
		t.result = result
	}
	t.mu.Unlock()
	close(t.done)
	return true
}

// TaskInfo is a point-in-time copy of a Task.
type TaskInfo struct {
	Err        error
	Elapsed    time.Duration
	Result     int64
	PayloadLen int
	State      State
	PID        abi.PID
	Parent     abi.PID
	Entry      uint32
}

// Info snapshots the task.
func (t *Task) Info() TaskInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	info := TaskInfo{
		PID:        t.PID,
		Parent:     t.Parent,
		Entry:      t.Entry,
		PayloadLen: t.PayloadLen,
		State:      t.state,
		Result:     t.result,
		Err:        t.err,
	}
	if t.state == StateRunning {
		info.Elapsed = time.Since(t.started)
	} else {
		info.Elapsed = t.finished.Sub(t.started)
	}
	return info
}
