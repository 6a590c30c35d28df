package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"webmfit/internal/progress"
)

type jobState struct {
	id     string
	title  string
	stage  progress.Stage
	status string
	speed  string
	err    error
	done   bool

	outputPath string
	bytes      int64
	limitBytes int64
	percent    float64 // -1 means unknown

	spinner spinner.Model
	bar     bubblesprogress.Model

	// Recent encoder log lines, shown after a failure.
	logsRing []string
}

const maxLogLines = 8

func newJobState(id, title string, styles Styles) jobState {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner
	return jobState{
		id:      id,
		title:   title,
		stage:   progress.StageProbe,
		status:  "Starting",
		percent: -1,
		spinner: sp,
		bar: bubblesprogress.New(
			bubblesprogress.WithDefaultGradient(),
			bubblesprogress.WithWidth(40),
		),
	}
}

func (js *jobState) apply(u progress.Update) {
	if js.stage != u.Stage {
		// A new pass starts from an empty bar.
		js.speed = ""
	}
	js.stage = u.Stage
	js.percent = u.Percent
	if u.Message != "" {
		js.status = u.Message
	}
	if u.Speed != nil {
		js.speed = *u.Speed
	}
	if u.Bytes != nil {
		js.bytes = *u.Bytes
	}
}

func (js *jobState) log(line string) {
	js.logsRing = append(js.logsRing, line)
	if len(js.logsRing) > maxLogLines {
		js.logsRing = js.logsRing[len(js.logsRing)-maxLogLines:]
	}
}

func (js *jobState) finish(r progress.Result) {
	js.done = true
	js.err = r.Err
	if r.Err != nil {
		js.stage = progress.StageError
		js.status = r.Err.Error()
		js.percent = -1
		return
	}
	js.stage = progress.StageCompleted
	js.percent = 100
	js.outputPath = r.OutputPath
	js.bytes = r.Bytes
	js.limitBytes = r.LimitBytes
}

// overweight reports whether a finished job exceeded its size limit.
func (js *jobState) overweight() bool {
	return js.limitBytes > 0 && js.bytes > js.limitBytes
}
