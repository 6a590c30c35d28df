package ui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptCancelled is returned when the prompt is left with ctrl+c.
var ErrPromptCancelled = errors.New("prompt cancelled")

// confirmModel asks a yes/no question. def is the answer for a bare enter.
type confirmModel struct {
	question  string
	def       bool
	answered  bool
	yes       bool
	cancelled bool
	styles    Styles
}

func newConfirmModel(empty bool) confirmModel {
	m := confirmModel{styles: defaultStyles()}
	if empty {
		m.question = "Encode input video intact? y/N "
	} else {
		m.question = "Continue with that settings? Y/n "
		m.def = true
	}
	return m
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answered, m.yes = true, true
	case "n", "N", "esc":
		m.answered, m.yes = true, false
	case "enter":
		m.answered, m.yes = true, m.def
	case "ctrl+c", "ctrl+d":
		m.cancelled = true
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m confirmModel) View() string {
	v := m.styles.Prompt.Render(m.question)
	if m.answered {
		if m.yes {
			v += "y\n"
		} else {
			v += "n\n"
		}
	}
	return v
}

// Confirm returns a prompt for the interactive selector. The question and
// the default answer depend on whether anything was selected.
func Confirm(in io.Reader, out io.Writer) func(summary string, empty bool) (bool, error) {
	return func(_ string, empty bool) (bool, error) {
		prog := tea.NewProgram(newConfirmModel(empty), tea.WithInput(in), tea.WithOutput(out))
		final, err := prog.Run()
		if err != nil {
			return false, err
		}
		m := final.(confirmModel)
		if m.cancelled || !m.answered {
			return false, ErrPromptCancelled
		}
		return m.yes, nil
	}
}
