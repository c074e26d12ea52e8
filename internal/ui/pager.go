package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// pager scrolls output that is taller than the terminal.
type pager struct {
	view     viewport.Model
	body     string
	ready    bool
	maxWidth int
	width    int
	height   int
	theme    Theme
}

func (p pager) Init() tea.Cmd { return nil }

func (p pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		}
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
		if !p.ready {
			p.view = viewport.New(0, 0)
			p.view.Style = p.theme.ViewPaneStyle()
			p.ready = true
		}
		p.view.Width = p.innerWidth()
		p.view.Height = max(p.height-1, 1)
		p.view.SetContent(p.body)
	}

	var cmd tea.Cmd
	p.view, cmd = p.view.Update(msg)
	return p, cmd
}

func (p pager) innerWidth() int {
	if p.maxWidth > 0 && p.width > p.maxWidth {
		return p.maxWidth
	}
	return p.width
}

func (p pager) View() string {
	if !p.ready {
		return ""
	}
	footer := fmt.Sprintf("%3.f%%  ↑/↓ scroll  q quit", p.view.ScrollPercent()*100)
	footer = p.theme.HelpStyle().Width(p.innerWidth()).Render(footer)
	return p.theme.PaintScreen(p.view.View()+"\n"+footer, p.width, p.height, p.innerWidth())
}

// OutputOrPage writes content to w. When w is a terminal and content does not
// fit on one screen, content opens in a pager instead. plain skips the pager,
// for output meant for other programs such as JSON.
func OutputOrPage(w io.Writer, content string, plain bool, maxWidth int, theme Theme) error {
	f, ok := w.(*os.File)
	if plain || !ok || !term.IsTerminal(int(f.Fd())) {
		_, err := io.WriteString(w, content)
		return err
	}
	_, height, err := term.GetSize(int(f.Fd()))
	if err != nil || strings.Count(content, "\n") < height-1 {
		_, err := io.WriteString(w, content)
		return err
	}

	prog := tea.NewProgram(pager{body: content, maxWidth: maxWidth, theme: theme},
		tea.WithAltScreen(), tea.WithOutput(f))
	_, err = prog.Run()
	return err
}
