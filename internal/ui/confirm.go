package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// choiceModel is a two-choice question answered with y or n. Anything that
// backs out of the prompt counts as no.
type choiceModel struct {
	question string
	answer   bool
	answered bool
	theme    Theme
}

func (m choiceModel) Init() tea.Cmd { return nil }

func (m choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "y":
		m.answer, m.answered = true, true
	case "n", "enter", "esc", "q", "ctrl+c":
		m.answer, m.answered = false, true
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m choiceModel) View() string {
	if m.answered {
		return ""
	}
	return m.theme.HeaderStyle().UnsetBackground().Render(m.question) + " " +
		m.theme.DangerStyle().UnsetBackground().Render("[y/N]") + " "
}

// Confirm asks question on the terminal and reports whether the user said yes.
func Confirm(ctx context.Context, question string, theme Theme) (bool, error) {
	result, err := tea.NewProgram(choiceModel{question: question, theme: theme}, tea.WithContext(ctx)).Run()
	if err != nil {
		return false, err
	}
	return result.(choiceModel).answer, nil
}

// TerminalConfirmer asks through the interactive prompt.
type TerminalConfirmer struct {
	Theme Theme
}

func (c TerminalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	return Confirm(ctx, prompt, c.Theme)
}

// LineConfirmer asks on Out and reads a y/N answer line from In, for
// when stdin is not a terminal.
type LineConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c LineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(c.Out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
