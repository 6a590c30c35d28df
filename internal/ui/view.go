package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"webmfit/internal/progress"
	"webmfit/internal/util/format"
)

func (m Model) viewHeader() string {
	title := m.styles.Title.Render("webmfit")
	sub := m.styles.Subtitle.Render("q: cancel")
	return title + "  " + sub
}

func (m Model) viewJob() string {
	js := m.state
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageDeps, progress.StageProbe, progress.StageSelect:
		stageStyle = m.styles.StageProbe
	case progress.StagePass1, progress.StagePass2, progress.StageEncoding:
		stageStyle = m.styles.StagePass
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	line1 := fmt.Sprintf("%s  %s", m.styles.JobTitle.Render(truncate(js.title, 48)), stageStyle.Render(string(js.stage)))

	var line2 string
	switch {
	case js.done && js.err != nil:
		line2 = m.styles.Error.Render("✗ error")
	case js.done:
		line2 = m.viewSize()
	case js.percent >= 0 && js.percent <= 100:
		line2 = fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
		if js.speed != "" {
			line2 += "  " + m.styles.Faint.Render(js.speed)
		}
	default:
		line2 = m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("working")
	}

	info := m.styles.JobInfo.Render(js.status)
	out := line1 + "\n" + line2 + "\n" + info
	if js.err != nil && len(js.logsRing) > 0 {
		out += "\n" + m.styles.Faint.Render(strings.Join(js.logsRing, "\n"))
	}
	return m.styles.Box.Render(out) + "\n"
}

func (m Model) viewSize() string {
	js := m.state
	name := filepath.Base(js.outputPath)
	s := m.styles.Success.Render(fmt.Sprintf("✓ %s (%s)", name, format.HumanizeBytes(js.bytes)))
	if js.overweight() {
		s += "  " + m.styles.Warning.Render(fmt.Sprintf("over the limit by %d B", js.bytes-js.limitBytes))
	}
	return s
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
