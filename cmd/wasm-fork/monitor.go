package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/capability"
	"github.com/wippyai/wasm-fork/engine"
	"github.com/wippyai/wasm-fork/errors"
	"github.com/wippyai/wasm-fork/fork"
)

const maxLogLines = 12

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD866"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type monitorModel struct {
	err      error
	registry *fork.Registry
	filename string
	runID    string
	tasks    []fork.TaskInfo
	logs     []string
	spinner  spinner.Model
	finished bool
}

type logMsg struct {
	entry capability.Entry
}

type registryMsg struct{}

type doneMsg struct {
	err error
}

func newMonitorModel(filename, runID string, registry *fork.Registry) *monitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle
	return &monitorModel{
		filename: filename,
		runID:    runID,
		registry: registry,
		spinner:  s,
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case logMsg:
		m.logs = append(m.logs, msg.entry.String())
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}

	case registryMsg:
		m.tasks = m.registry.Snapshot()

	case doneMsg:
		m.finished = true
		m.err = msg.err
		m.tasks = m.registry.Snapshot()

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Fork"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(helpStyle.Render("  run " + m.runID))
	b.WriteString("\n\n")

	if m.finished {
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Finished with errors: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render("Finished"))
		}
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(" running")
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %-6s %-6s %-10s %-10s %s", "PID", "PARENT", "ENTRY", "STATE", "ELAPSED", "RESULT")))
	b.WriteString("\n")
	if len(m.tasks) == 0 {
		b.WriteString(helpStyle.Render("no forks yet"))
		b.WriteString("\n")
	}
	for _, t := range m.tasks {
		b.WriteString(formatTask(t))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Debug output"))
	b.WriteString("\n")
	for _, line := range m.logs {
		b.WriteString(logStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q quit"))
	return b.String()
}

func formatTask(t fork.TaskInfo) string {
	row := fmt.Sprintf("%-6d %-6d %-6d %-10s %-10s ", t.PID, t.Parent, t.Entry, t.State, t.Elapsed.Round(time.Millisecond))
	switch t.State {
	case fork.StateRunning:
		return runningStyle.Render(row)
	case fork.StateFailed:
		return row + errorStyle.Render(t.Err.Error())
	default:
		return row + resultStyle.Render(fmt.Sprintf("%d", t.Result))
	}
}

// runMonitor runs the module under a TUI that shows forks and debug output as
// they happen. Logging is silenced while the TUI owns the terminal.
func runMonitor(ctx context.Context, mod *engine.Module, opts options, policy fork.ExitPolicy, runID string) error {
	registry := fork.NewRegistry()
	p := tea.NewProgram(newMonitorModel(opts.path, runID, registry), tea.WithAltScreen())

	unsubscribe := registry.Subscribe(func(fork.Event) {
		p.Send(registryMsg{})
	})
	defer unsubscribe()

	exec := fork.NewExecutor(ctx, fork.NewHandle(mod), &fork.ExecutorConfig{
		Registry: registry,
		Sink: capability.SinkFunc(func(pid abi.PID, text string) {
			p.Send(logMsg{entry: capability.Entry{PID: pid, Text: text}})
		}),
		Logger: zap.NewNop(),
		RunID:  runID,
	})

	go func() {
		err := exec.Run(ctx)
		err = multierr.Append(err, exec.Shutdown(ctx, policy, opts.cfg.DrainTimeout))
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(*monitorModel); ok && m.finished {
		return m.err
	}
	return quitEarly(exec)
}

// quitEarly handles the monitor closing before the run reported back. Forks
// still running are abandoned and named in the returned error.
func quitEarly(exec *fork.Executor) error {
	if err := exec.Abandon(); err != nil {
		return err
	}
	return errors.New(errors.PhaseRuntime, errors.KindStillRunning).
		Detail("monitor closed before the run finished").
		Build()
}
