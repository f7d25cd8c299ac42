package fork

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

// EventType identifies a registry lifecycle event.
type EventType int

const (
	EventRegistered EventType = iota
	EventFinished
)

// Event is delivered to observers when a task is registered or finishes.
type Event struct {
	Task *Task
	Type EventType
}

// Observer receives registry events. It is called synchronously and must not block.
type Observer func(Event)

// Registry maps pids to forked tasks. Entries are kept after completion.
type Registry struct {
	tasks     map[abi.PID]*Task
	observers map[int]Observer
	mu        sync.RWMutex
	nextObs   int
}

func NewRegistry() *Registry {
	return &Registry{
		tasks:     make(map[abi.PID]*Task),
		observers: make(map[int]Observer),
	}
}

// Register inserts task under its pid. A pid can be registered only once.
func (r *Registry) Register(task *Task) error {
	r.mu.Lock()
	if _, exists := r.tasks[task.PID]; exists {
		r.mu.Unlock()
		return errors.DuplicatePID(uint32(task.PID))
	}
	r.tasks[task.PID] = task
	r.mu.Unlock()

	r.notify(Event{Type: EventRegistered, Task: task})
	return nil
}

// complete records the task outcome and notifies observers.
func (r *Registry) complete(task *Task, result int64, err error) {
	if task.finish(result, err) {
		r.notify(Event{Type: EventFinished, Task: task})
	}
}

func (r *Registry) Lookup(pid abi.PID) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[pid]
	return t, ok
}

// Poll returns the result of pid without blocking.
func (r *Registry) Poll(pid abi.PID) (int64, error) {
	t, ok := r.Lookup(pid)
	if !ok {
		return 0, errors.UnknownPID(uint32(pid))
	}
	return t.Result()
}

// PollStatus reports pid as one of the abi.Poll* codes.
func (r *Registry) PollStatus(pid abi.PID) (uint32, int64) {
	t, ok := r.Lookup(pid)
	if !ok {
		return abi.PollUnknown, 0
	}
	switch t.State() {
	case StateRunning:
		return abi.PollRunning, 0
	case StateFailed:
		return abi.PollFailed, 0
	default:
		result, _ := t.Result()
		return abi.PollDone, result
	}
}

// Wait blocks until pid finishes or ctx is done.
func (r *Registry) Wait(ctx context.Context, pid abi.PID) (int64, error) {
	t, ok := r.Lookup(pid)
	if !ok {
		return 0, errors.UnknownPID(uint32(pid))
	}
	select {
	case <-t.Done():
		return t.Result()
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Snapshot returns every task ordered by pid.
func (r *Registry) Snapshot() []TaskInfo {
	tasks := r.sorted()
	infos := make([]TaskInfo, len(tasks))
	for i, t := range tasks {
		infos[i] = t.Info()
	}
	return infos
}

// Running returns the pids of unfinished tasks in ascending order.
func (r *Registry) Running() []abi.PID {
	var pids []abi.PID
	for _, t := range r.sorted() {
		if t.State() == StateRunning {
			pids = append(pids, t.PID)
		}
	}
	return pids
}

func (r *Registry) sorted() []*Task {
	r.mu.RLock()
	tasks := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	r.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].PID < tasks[j].PID })
	return tasks
}

// Drain waits until no task is running, including tasks registered while
// draining. It returns the combined errors of every failed task, or ctx's
// error if ctx ends first.
func (r *Registry) Drain(ctx context.Context) error {
	for {
		var pending []*Task
		for _, t := range r.sorted() {
			if t.State() == StateRunning {
				pending = append(pending, t)
			}
		}
		if len(pending) == 0 {
			break
		}
		for _, t := range pending {
			select {
			case <-t.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	var err error
	for _, t := range r.sorted() {
		err = multierr.Append(err, t.Err())
	}
	return err
}

// Subscribe registers obs and returns a function that removes it.
func (r *Registry) Subscribe(obs Observer) func() {
	r.mu.Lock()
	id := r.nextObs
	r.nextObs++
	r.observers[id] = obs
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

func (r *Registry) notify(ev Event) {
	r.mu.RLock()
	ids := make([]int, 0, len(r.observers))
	for id := range r.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = r.observers[id]
	}
	r.mu.RUnlock()

	for _, obs := range observers {
		obs(ev)
	}
}
