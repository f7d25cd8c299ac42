package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zaptest"

	"github.com/wippyai/wasm-fork/capability"
	"github.com/wippyai/wasm-fork/engine"
	"github.com/wippyai/wasm-fork/errors"
	"github.com/wippyai/wasm-fork/fork"
	"github.com/wippyai/wasm-fork/guest"
)

func TestMonitorModel_Logs(t *testing.T) {
	m := newMonitorModel("guest.wasm", "run-1", fork.NewRegistry())

	for i := 0; i < maxLogLines+3; i++ {
		m.Update(logMsg{entry: capability.Entry{PID: 1, Text: fmt.Sprintf("line %d", i)}})
	}

	if len(m.logs) != maxLogLines {
		t.Fatalf("expected %d log lines, got %d", maxLogLines, len(m.logs))
	}
	if m.logs[0] != "[pid=1] line 3" {
		t.Errorf("oldest kept line = %q", m.logs[0])
	}
	if !strings.Contains(m.View(), "line 14") {
		t.Error("view should show the newest line")
	}
}

func TestMonitorModel_Done(t *testing.T) {
	m := newMonitorModel("guest.wasm", "run-1", fork.NewRegistry())

	if strings.Contains(m.View(), "Finished") {
		t.Fatal("view should not report finished before doneMsg")
	}
	m.Update(doneMsg{err: stderrors.New("boom")})

	if !m.finished {
		t.Fatal("model should be finished")
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the error")
	}
}

func TestMonitorModel_Quit(t *testing.T) {
	m := newMonitorModel("guest.wasm", "run-1", fork.NewRegistry())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

// startedExecutor runs a root that forks entry 1 once. With spin, the fork
// loops until terminated; otherwise it returns at once.
func startedExecutor(t *testing.T, spin bool) *fork.Executor {
	t.Helper()
	ctx := context.Background()

	eng, err := engine.New(ctx, &engine.Config{CloseOnContextDone: true})
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	t.Cleanup(func() { eng.Close(ctx) })
	if err := eng.RegisterHost(ctx, capability.HostFuncs()); err != nil {
		t.Fatalf("RegisterHost failed: %v", err)
	}

	p := guest.NewProgram(nil)
	msg := p.Text(16, "x")
	run := guest.NewCode()
	p.ForkDesc(run, 1, msg).Drop()
	p.Run(nil, run)
	if spin {
		p.Invoke(nil, guest.NewCode().Loop().Br(0).End().Unreachable())
	} else {
		p.Invoke(nil, guest.NewCode().I64Const(0))
	}

	mod, err := eng.Load(ctx, p.Encode())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	exec := fork.NewExecutor(ctx, fork.NewHandle(mod), &fork.ExecutorConfig{Logger: zaptest.NewLogger(t)})
	t.Cleanup(func() {
		exec.Terminate()
		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if _, err := exec.Registry().Wait(waitCtx, 1); err != nil && waitCtx.Err() != nil {
			t.Error("fork still running after Terminate")
		}
	})

	if err := exec.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return exec
}

func TestQuitEarly_AbandonsRunningForks(t *testing.T) {
	exec := startedExecutor(t, true)

	err := quitEarly(exec)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindStillRunning {
		t.Fatalf("expected still_running, got %v", err)
	}
	if !strings.Contains(err.Error(), "[1]") {
		t.Errorf("error should name pid 1: %v", err)
	}
	if _, err := exec.Spawn(context.Background(), capability.Request{Entry: 1}); err == nil {
		t.Error("executor should stop accepting forks")
	}
}

func TestQuitEarly_NothingRunning(t *testing.T) {
	exec := startedExecutor(t, false)
	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := exec.Registry().Wait(waitCtx, 1); err != nil {
		t.Fatalf("fork failed: %v", err)
	}

	err := quitEarly(exec)
	if !stderrors.Is(err, errors.New(errors.PhaseRuntime, errors.KindStillRunning).Build()) {
		t.Fatalf("expected a runtime still_running error, got %v", err)
	}
}
