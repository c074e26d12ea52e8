package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/chris-regnier/daybook/internal/config"
)

// Theme is the resolved palette for the browser, the pager and prompts.
// Marked colors calendar days that have entries.
type Theme struct {
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Accent        lipgloss.Color
	Muted         lipgloss.Color
	Danger        lipgloss.Color
	Marked        lipgloss.Color
	Background    lipgloss.Color
	MarkdownStyle string
}

const defaultPreset = "default-dark"

// palette lists colors in Theme field order.
func palette(primary, secondary, accent, muted, danger, marked, bg, md string) Theme {
	return Theme{
		Primary:       lipgloss.Color(primary),
		Secondary:     lipgloss.Color(secondary),
		Accent:        lipgloss.Color(accent),
		Muted:         lipgloss.Color(muted),
		Danger:        lipgloss.Color(danger),
		Marked:        lipgloss.Color(marked),
		Background:    lipgloss.Color(bg),
		MarkdownStyle: md,
	}
}

var presets = map[string]Theme{
	"default-dark":     palette("15", "243", "33", "241", "9", "214", "235", "dark"),
	"default-light":    palette("0", "240", "27", "245", "1", "166", "254", "light"),
	"sepia":            palette("#5B4636", "#8C7A64", "#A0522D", "#A89880", "#B03A2E", "#C77D2E", "#F4ECD8", "light"),
	"dracula":          palette("#F8F8F2", "#6272A4", "#BD93F9", "#6272A4", "#FF5555", "#50FA7B", "#282A36", "dark"),
	"ayu-dark":         palette("#BFBDB6", "#565B66", "#E6B450", "#565B66", "#D95757", "#AAD94C", "#0D1017", "dark"),
	"ayu-light":        palette("#575F66", "#8A9199", "#F2AE49", "#8A9199", "#E65050", "#86B300", "#FAFAFA", "light"),
	"catppuccin-mocha": palette("#CDD6F4", "#585B70", "#CBA6F7", "#6C7086", "#F38BA8", "#A6E3A1", "#1E1E2E", "dark"),
	"catppuccin-latte": palette("#4C4F69", "#9CA0B0", "#8839EF", "#9CA0B0", "#D20F39", "#40A02B", "#EFF1F5", "light"),
	"gruvbox-dark":     palette("#EBDBB2", "#665C54", "#FABD2F", "#928374", "#FB4934", "#B8BB26", "#282828", "dark"),
	"gruvbox-light":    palette("#3C3836", "#A89984", "#D79921", "#928374", "#CC241D", "#98971A", "#FBF1C7", "light"),
}

// ResolveTheme starts from the configured preset, or default-dark when it is
// unknown, and applies any colors set explicitly in cfg.
func ResolveTheme(cfg config.ThemeConfig) Theme {
	theme, ok := presets[cfg.Preset]
	if !ok {
		theme = presets[defaultPreset]
	}

	overrides := []struct {
		dst *lipgloss.Color
		val string
	}{
		{&theme.Primary, cfg.Primary},
		{&theme.Secondary, cfg.Secondary},
		{&theme.Accent, cfg.Accent},
		{&theme.Muted, cfg.Muted},
		{&theme.Danger, cfg.Danger},
		{&theme.Marked, cfg.Marked},
		{&theme.Background, cfg.Background},
	}
	for _, o := range overrides {
		if o.val != "" {
			*o.dst = lipgloss.Color(o.val)
		}
	}
	if cfg.MarkdownStyle != "" {
		theme.MarkdownStyle = cfg.MarkdownStyle
	}
	return theme
}

// on returns a style in fg over the theme background.
func (t Theme) on(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Background(t.Background)
}

func (t Theme) HelpStyle() lipgloss.Style   { return t.on(t.Muted) }
func (t Theme) HeaderStyle() lipgloss.Style { return t.on(t.Primary).Bold(true) }
func (t Theme) AccentStyle() lipgloss.Style { return t.on(t.Accent) }
func (t Theme) DangerStyle() lipgloss.Style { return t.on(t.Danger) }

// ViewPaneStyle is the plain body text style.
func (t Theme) ViewPaneStyle() lipgloss.Style { return t.on(t.Primary) }

// MarkedDayStyle highlights calendar days that have entries.
func (t Theme) MarkedDayStyle() lipgloss.Style { return t.on(t.Marked).Bold(true) }

// TodayStyle underlines today's cell in the calendar.
func (t Theme) TodayStyle() lipgloss.Style { return t.on(t.Primary).Underline(true) }

// SelectedDayStyle draws the calendar cursor in reverse on the accent color.
func (t Theme) SelectedDayStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Background).Background(t.Accent)
}

// boxed wraps body text in a rounded border of the given color.
func (t Theme) boxed(border lipgloss.Color) lipgloss.Style {
	return t.on(t.Primary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		BorderBackground(t.Background)
}

// NoticeStyle frames dismissible notices such as "limit reached".
func (t Theme) NoticeStyle() lipgloss.Style { return t.boxed(t.Danger).Padding(0, 1) }

// BorderStyle frames overlays such as the calendar and the help screen.
func (t Theme) BorderStyle() lipgloss.Style { return t.boxed(t.Secondary) }

// eraseEOL sets the background and erases to the end of the line, so the
// color reaches the right edge even when width measurement is off.
func (t Theme) eraseEOL() string {
	s := string(t.Background)
	if len(s) == 7 && s[0] == '#' {
		var r, g, b int
		fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b)
		return fmt.Sprintf("\x1b[48;2;%d;%d;%dm\x1b[K", r, g, b)
	}
	return "\x1b[48;5;" + s + "m\x1b[K"
}

// PaintScreen lays content out on a full termWidth x termHeight screen in the
// theme background. A contentWidth narrower than the terminal is centered.
func (t Theme) PaintScreen(content string, termWidth, termHeight, contentWidth int) string {
	fill := func(n int) string {
		if n <= 0 {
			return ""
		}
		return t.on(t.Primary).Render(strings.Repeat(" ", n))
	}
	indent := 0
	if contentWidth > 0 && contentWidth < termWidth {
		indent = (termWidth - contentWidth) / 2
	}
	eol := t.eraseEOL()

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = fill(indent) + line + fill(termWidth-indent-lipgloss.Width(line)) + eol
	}
	for len(lines) < termHeight {
		lines = append(lines, fill(termWidth)+eol)
	}
	return strings.Join(lines[:termHeight], "\n")
}

// EraseLineEnds extends the background of every line to the terminal edge.
func (t Theme) EraseLineEnds(content string) string {
	eol := t.eraseEOL()
	return strings.ReplaceAll(content, "\n", eol+"\n") + eol
}

// NewList returns an entry list styled with the theme.
func (t Theme) NewList(items []list.Item, width, height int) list.Model {
	l := list.New(items, t.ListDelegate(), width, height)
	l.Styles = t.ListStyles()
	return l
}

// ListDelegate styles list rows: the selected row gets an accent bar on the
// left; its description, the story preview, stays quieter.
func (t Theme) ListDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.NormalTitle = t.on(t.Primary).PaddingLeft(2)
	d.Styles.NormalDesc = t.on(t.Muted).PaddingLeft(2)
	d.Styles.SelectedTitle = t.on(t.Accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(t.Accent).
		BorderBackground(t.Background).
		PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Foreground(t.Secondary)
	d.Styles.DimmedTitle = t.on(t.Muted).PaddingLeft(2)
	d.Styles.DimmedDesc = d.Styles.DimmedTitle
	return d
}

// ListStyles styles the chrome around the list.
func (t Theme) ListStyles() list.Styles {
	s := list.DefaultStyles()
	s.Title = t.HeaderStyle()
	s.TitleBar = lipgloss.NewStyle().Background(t.Background)
	s.FilterPrompt = t.AccentStyle()
	s.FilterCursor = t.AccentStyle()
	s.StatusBar = t.HelpStyle()
	s.PaginationStyle = t.HelpStyle()
	s.HelpStyle = t.HelpStyle()
	s.ActivePaginationDot = t.AccentStyle()
	s.InactivePaginationDot = t.HelpStyle()
	s.NoItems = t.HelpStyle()
	return s
}
