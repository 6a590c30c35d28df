// Package ui renders encode progress and the selection prompt with
// bubbletea.
package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"webmfit/internal/progress"
)

// Job is the work the progress view drives. It reports through rep and
// its error becomes the result of Run.
type Job func(ctx context.Context, rep progress.Reporter) error

const jobID = "encode"

// Model shows one encode: its stage, a bar for the running pass and the
// final size.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	job    Job
	state  *jobState
	err    error // returned by the job
	styles Styles

	width int

	// eventCh feeds reporter events into the tea loop.
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, title string, job Job) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()
	js := newJobState(jobID, title, sty)
	return Model{
		ctx:     c,
		cancel:  cancel,
		job:     job,
		state:   &js,
		styles:  sty,
		eventCh: make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.state.spinner.Tick, m.listenEventsCmd(), m.startJobCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	event := false
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// Cancelling the context kills ffmpeg; the job then returns.
			m.cancel()
			m.state.status = "Cancelling"
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 12; w > 10 && w < 80 {
			m.state.bar.Width = w
		}
	case jobUpdateMsg:
		m.state.apply(msg.U)
		event = true
	case jobLogMsg:
		m.state.log(strings.TrimRight(msg.L.Line, "\r\n"))
		event = true
	case jobResultMsg:
		m.state.finish(msg.R)
		event = true
	case jobDoneMsg:
		m.drain()
		m.err = msg.Err
		if msg.Err != nil && !m.state.done {
			m.state.finish(progress.Result{JobID: jobID, Err: msg.Err})
		}
		m.state.done = true
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	var c tea.Cmd
	m.state.spinner, c = m.state.spinner.Update(msg)
	if c != nil {
		cmds = append(cmds, c)
	}
	// One listener at a time: re-arm only after it delivered an event.
	if event {
		cmds = append(cmds, m.listenEventsCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return m.viewHeader() + "\n\n" + m.viewJob()
}

// drain applies reporter events still queued when the job returns.
func (m Model) drain() {
	for {
		select {
		case ev := <-m.eventCh:
			switch ev := ev.(type) {
			case jobUpdateMsg:
				m.state.apply(ev.U)
			case jobLogMsg:
				m.state.log(strings.TrimRight(ev.L.Line, "\r\n"))
			case jobResultMsg:
				m.state.finish(ev.R)
			}
		default:
			return
		}
	}
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		return <-m.eventCh
	}
}

func (m Model) startJobCmd() tea.Cmd {
	ch := m.eventCh
	return func() tea.Msg {
		err := m.job(m.ctx, teaReporter{ch: ch})
		return jobDoneMsg{Err: err}
	}
}

type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	// Block on completion messages to ensure they're delivered
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- jobUpdateMsg{U: u}
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.ch <- jobResultMsg{R: res}
}
