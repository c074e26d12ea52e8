package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/daybook/internal/calendar"
	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/editor"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/filter"
	"github.com/chris-regnier/daybook/internal/photo"
)

// Journal is what the browser reads and writes. *journal.Store satisfies it.
type Journal interface {
	draft.Sink
	Entries() []entry.Entry
	Get(id string) (entry.Entry, bool)
	OnChange(fn func([]entry.Entry)) (cancel func())
}

// BrowserConfig holds configuration needed by the browser.
type BrowserConfig struct {
	Editor   string         // resolved editor command
	MaxWidth int            // maximum content width (0 = no limit)
	Theme    Theme          // resolved theme
	Photos   *photo.Library // where attached photos are imported
	Now      func() time.Time
}

type browseScreen int

const (
	screenList browseScreen = iota
	screenDetail
	screenForm
)

// Form fields, in tab order.
const (
	fieldTitle = iota
	fieldDate
	fieldStory
	fieldPhotos
	fieldCount
)

const maxPhotoPathInput = 2000

// entryItem implements list.Item for an entry.
type entryItem struct {
	entry entry.Entry
}

func (i entryItem) Title() string {
	date := entry.FormatDate(i.entry.Date)
	if date == "" {
		date = "undated"
	}
	return fmt.Sprintf("%s · %s", date, i.entry.DisplayTitle())
}

func (i entryItem) Description() string {
	desc := i.entry.Preview(80)
	if n := len(i.entry.Photo); n > 0 {
		if desc != "" {
			desc += "  "
		}
		desc += fmt.Sprintf("[%d photo(s)]", n)
	}
	return desc
}

func (i entryItem) FilterValue() string { return filter.Haystack(i.entry) }

// answerBox carries the user's reply to a pending prompt into the editor's
// Confirmer, which is called synchronously from Update.
type answerBox struct {
	yes bool
}

// Messages.
type (
	journalChangedMsg struct{}
	storyEditedMsg    struct {
		story   string
		changed bool
		err     error
	}
)

// browseModel is the Bubble Tea model for the diary browser.
type browseModel struct {
	journal Journal
	cfg     BrowserConfig

	screen  browseScreen
	entries []entry.Entry // filtered and sorted
	query   filter.Query
	list    list.Model

	// Search
	search       textinput.Model
	searchActive bool

	// Calendar overlay
	calendarActive bool
	cursor         time.Time

	// Detail
	detail viewport.Model
	shown  entry.Entry

	// Form
	editor      *draft.Editor
	answer      *answerBox
	focus       int
	title       textinput.Model
	date        textinput.Model
	story       textarea.Model
	photoIdx    int
	photoInput  textinput.Model
	photoActive bool
	prompt      string // pending y/N question, "" when none

	notice     string
	helpActive bool

	width  int
	height int
	ready  bool
	err    error
}

func newBrowseModel(j Journal, cfg BrowserConfig) browseModel {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	answer := &answerBox{}
	confirm := draft.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		return answer.yes, nil
	})

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search title, story or date"

	l := cfg.Theme.NewList(nil, 0, 0)
	l.Title = "Daybook"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	m := browseModel{
		journal: j,
		cfg:     cfg,
		list:    l,
		search:  search,
		editor:  draft.New(j, confirm, draft.WithClock(cfg.Now)),
		answer:  answer,
	}
	m.refresh()
	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

// refresh re-applies the query to the journal and rebuilds the list.
func (m *browseModel) refresh() {
	m.entries = filter.Apply(m.journal.Entries(), m.query)
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = entryItem{entry: e}
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	if m.screen == screenDetail {
		if e, ok := m.journal.Get(m.shown.ID); ok {
			m.shown = e
			m.detail.SetContent(m.renderEntry(e))
		} else {
			m.screen = screenList
		}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case journalChangedMsg:
		m.refresh()
		return m, nil

	case storyEditedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else if msg.changed {
			m.story.SetValue(msg.story)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.notice != "" {
			m.notice = ""
			return m, nil
		}
		if m.helpActive {
			if msg.String() == "?" || msg.String() == "esc" {
				m.helpActive = false
			}
			return m, nil
		}
		if m.prompt != "" {
			return m.updatePrompt(msg)
		}
		if m.calendarActive {
			return m.updateCalendar(msg)
		}
		switch m.screen {
		case screenList:
			if m.searchActive {
				return m.updateSearch(msg)
			}
			return m.updateList(msg)
		case screenDetail:
			return m.updateDetail(msg)
		case screenForm:
			return m.updateForm(msg)
		}
	}
	return m, nil
}

func (m *browseModel) layout() {
	cw := m.contentWidth()
	m.list.SetSize(cw, max(m.height-4, 3))
	m.search.Width = cw - 4
	m.detail.Width = cw
	m.detail.Height = max(m.height-3, 3)
	m.title.Width = cw - 10
	m.date.Width = 12
	m.story.SetWidth(cw - 2)
	m.story.SetHeight(max(m.height-14, 3))
	m.photoInput.Width = cw - 4
}

func (m *browseModel) contentWidth() int {
	if m.cfg.MaxWidth > 0 && m.width > m.cfg.MaxWidth {
		return m.cfg.MaxWidth
	}
	return m.width
}

func (m browseModel) selected() (entry.Entry, bool) {
	item, ok := m.list.SelectedItem().(entryItem)
	if !ok {
		return entry.Entry{}, false
	}
	return item.entry, true
}

// List screen

func (m browseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.helpActive = true
		return m, nil
	case "/":
		m.searchActive = true
		m.search.SetValue(m.query.Text)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "c":
		m.openCalendar()
		return m, nil
	case "x":
		m.query = calendar.Clear()
		m.search.SetValue("")
		m.refresh()
		return m, nil
	case "n":
		return m.openForm(nil)
	case "enter":
		if e, ok := m.selected(); ok {
			m.showDetail(e)
		}
		return m, nil
	case "e":
		if e, ok := m.selected(); ok {
			return m.openForm(&e)
		}
		return m, nil
	case "d":
		if e, ok := m.selected(); ok {
			next, cmd := m.openForm(&e)
			bm := next.(browseModel)
			bm.prompt = draft.DeletePrompt
			return bm, cmd
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searchActive = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query.Text {
		m.query.Text = m.search.Value()
		m.refresh()
	}
	return m, cmd
}

// Calendar overlay

func (m *browseModel) openCalendar() {
	m.calendarActive = true
	if t, err := entry.ParseDay(m.query.Day); err == nil {
		m.cursor = t
	} else {
		m.cursor = m.cfg.Now()
	}
}

func (m browseModel) updateCalendar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "c", "q":
		m.calendarActive = false
	case "left", "h":
		m.cursor = m.cursor.AddDate(0, 0, -1)
	case "right", "l":
		m.cursor = m.cursor.AddDate(0, 0, 1)
	case "up", "k":
		m.cursor = m.cursor.AddDate(0, 0, -7)
	case "down", "j":
		m.cursor = m.cursor.AddDate(0, 0, 7)
	case "[", "pgup":
		m.cursor = m.cursor.AddDate(0, -1, 0)
	case "]", "pgdown":
		m.cursor = m.cursor.AddDate(0, 1, 0)
	case "t":
		m.cursor = m.cfg.Now()
	case "enter":
		q, err := calendar.Select(entry.DayKey(m.cursor))
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.query.Day = q.Day
		m.calendarActive = false
		m.refresh()
	case "x":
		m.query.Day = ""
		m.calendarActive = false
		m.refresh()
	}
	return m, nil
}

func (m browseModel) calendarView() string {
	t := m.cfg.Theme
	marked := calendar.MarkedDays(m.journal.Entries())
	g := calendar.Month(m.cursor.Year(), m.cursor.Month(), marked,
		entry.DayKey(m.cfg.Now()), entry.DayKey(m.cursor))

	var b strings.Builder
	b.WriteString(t.HeaderStyle().Width(7 * 4).Align(lipgloss.Center).Render(g.Title()))
	b.WriteString("\n")
	b.WriteString(t.HelpStyle().Render(" Su  Mo  Tu  We  Th  Fr  Sa "))
	for _, week := range g.Weeks {
		b.WriteString("\n")
		for _, c := range week {
			b.WriteString(t.ViewPaneStyle().Render(" "))
			if c.Day == 0 {
				b.WriteString(t.ViewPaneStyle().Render("   "))
				continue
			}
			style := t.ViewPaneStyle()
			switch {
			case c.Selected:
				style = t.SelectedDayStyle()
			case c.Marked:
				style = t.MarkedDayStyle()
			case c.Today:
				style = t.TodayStyle()
			}
			if c.Today && !c.Selected {
				style = style.Underline(true)
			}
			b.WriteString(style.Render(fmt.Sprintf("%2d", c.Day)))
			b.WriteString(t.ViewPaneStyle().Render(" "))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(t.HelpStyle().Render("←→↑↓ move  [ ] month  t today\nenter select  x clear date  esc close"))
	return t.BorderStyle().Padding(0, 1).Render(b.String())
}

// Detail screen

func (m *browseModel) showDetail(e entry.Entry) {
	m.shown = e
	m.detail = viewport.New(m.contentWidth(), max(m.height-3, 3))
	m.detail.Style = m.cfg.Theme.ViewPaneStyle()
	m.detail.SetContent(m.renderEntry(e))
	m.screen = screenDetail
}

func (m browseModel) renderEntry(e entry.Entry) string {
	var b strings.Builder
	FormatEntryFull(&b, e, m.cfg.Theme.MarkdownStyle)
	return b.String()
}

func (m browseModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.screen = screenList
		return m, nil
	case "e":
		e := m.shown
		return m.openForm(&e)
	case "d":
		e := m.shown
		next, cmd := m.openForm(&e)
		bm := next.(browseModel)
		bm.prompt = draft.DeletePrompt
		return bm, cmd
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// Form screen

// openForm starts creating (src == nil) or editing src.
func (m browseModel) openForm(src *entry.Entry) (tea.Model, tea.Cmd) {
	if src == nil {
		m.editor.BeginCreate()
	} else {
		m.editor.BeginEdit(*src)
	}
	w := m.editor.Working()

	m.title = textinput.New()
	m.title.Placeholder = "Title"
	m.title.SetValue(w.Title)

	m.date = textinput.New()
	m.date.Placeholder = entry.DayLayout
	m.date.CharLimit = len(entry.DayLayout)
	m.date.SetValue(entry.DayKey(w.Date))

	m.story = textarea.New()
	m.story.Placeholder = "What happened today?"
	m.story.ShowLineNumbers = false
	m.story.CharLimit = 0
	m.story.SetValue(w.Story)

	m.photoInput = textinput.New()
	m.photoInput.Placeholder = "paths to images, separated by spaces"
	m.photoInput.CharLimit = maxPhotoPathInput
	m.photoActive = false
	m.photoIdx = 0

	m.screen = screenForm
	m.layout()
	return m, m.focusField(fieldTitle)
}

func (m *browseModel) focusField(f int) tea.Cmd {
	m.focus = f
	m.title.Blur()
	m.date.Blur()
	m.story.Blur()
	switch f {
	case fieldTitle:
		return m.title.Focus()
	case fieldDate:
		return m.date.Focus()
	case fieldStory:
		return m.story.Focus()
	}
	return nil
}

// syncForm pushes the inputs into the editor's working copy.
func (m *browseModel) syncForm() error {
	if err := m.editor.SetTitle(m.title.Value()); err != nil {
		return err
	}
	if err := m.editor.SetStory(m.story.Value()); err != nil {
		return err
	}
	key := strings.TrimSpace(m.date.Value())
	if key == entry.DayKey(m.editor.Working().Date) {
		return nil
	}
	t, err := entry.ParseDay(key)
	if err != nil {
		return err
	}
	return m.editor.SelectDate(t)
}

func (m browseModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.photoActive {
		return m.updatePhotoInput(msg)
	}

	switch msg.String() {
	case "tab":
		return m, m.focusField((m.focus + 1) % fieldCount)
	case "shift+tab":
		return m, m.focusField((m.focus + fieldCount - 1) % fieldCount)
	case "ctrl+s":
		if err := m.syncForm(); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		saved, err := m.editor.Save(context.Background())
		if err != nil {
			m.notice = "Could not save: " + err.Error()
			return m, nil
		}
		m.refresh()
		m.showDetail(saved)
		return m, nil
	case "esc":
		m.prompt = draft.CancelPrompt
		return m, nil
	case "ctrl+d":
		if m.editor.State() != draft.Editing {
			m.notice = draft.ErrNotEditing.Error()
			return m, nil
		}
		m.prompt = draft.DeletePrompt
		return m, nil
	case "ctrl+e":
		return m, m.editStory()
	case "ctrl+o":
		m.photoActive = true
		m.photoInput.SetValue("")
		return m, m.photoInput.Focus()
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldTitle:
		m.title, cmd = m.title.Update(msg)
	case fieldDate:
		m.date, cmd = m.date.Update(msg)
	case fieldStory:
		m.story, cmd = m.story.Update(msg)
	case fieldPhotos:
		n := len(m.editor.Working().Photo)
		switch msg.String() {
		case "left", "up":
			if m.photoIdx > 0 {
				m.photoIdx--
			}
		case "right", "down":
			if m.photoIdx < n-1 {
				m.photoIdx++
			}
		case "backspace", "delete", "x":
			if err := m.editor.RemovePhoto(m.photoIdx); err == nil && m.photoIdx >= n-1 && m.photoIdx > 0 {
				m.photoIdx--
			}
		}
	}
	return m, cmd
}

func (m browseModel) updatePhotoInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.photoActive = false
		m.photoInput.Blur()
		return m, nil
	case "enter":
		m.photoActive = false
		m.photoInput.Blur()
		if m.cfg.Photos == nil {
			m.notice = "No photo library configured."
			return m, nil
		}
		src := photo.Files{Library: m.cfg.Photos, Paths: strings.Fields(m.photoInput.Value())}
		_, err := m.editor.AttachPhotos(context.Background(), src)
		m.notice = photoNotice(err)
		return m, nil
	}
	var cmd tea.Cmd
	m.photoInput, cmd = m.photoInput.Update(msg)
	return m, cmd
}

func (m browseModel) editStory() tea.Cmd {
	f, err := editor.NewStoryFile(m.story.Value())
	if err != nil {
		return func() tea.Msg { return storyEditedMsg{err: err} }
	}
	c, err := f.Command(editor.ResolveEditor(m.cfg.Editor))
	if err != nil {
		f.Remove()
		return func() tea.Msg { return storyEditedMsg{err: err} }
	}
	return tea.ExecProcess(c, func(err error) tea.Msg {
		defer f.Remove()
		if err != nil {
			return storyEditedMsg{err: err}
		}
		story, changed, err := f.Result()
		return storyEditedMsg{story: story, changed: changed, err: err}
	})
}

func photoNotice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, draft.ErrPhotoLimit), errors.Is(err, draft.ErrPermissionDenied):
		return err.Error()
	default:
		return "Could not attach photos: " + err.Error()
	}
}

// updatePrompt answers a pending cancel or delete question.
func (m browseModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var yes bool
	switch strings.ToLower(msg.String()) {
	case "y":
		yes = true
	case "n", "esc", "enter":
		yes = false
	default:
		return m, nil
	}
	prompt := m.prompt
	m.prompt = ""
	m.answer.yes = yes
	ctx := context.Background()

	switch prompt {
	case draft.CancelPrompt:
		closed, err := m.editor.Cancel(ctx)
		if err != nil {
			m.notice = err.Error()
		} else if closed {
			m.screen = screenList
		}
	case draft.DeletePrompt:
		deleted, err := m.editor.Delete(ctx)
		if err != nil {
			m.notice = "Could not delete: " + err.Error()
		} else if deleted {
			m.screen = screenList
			m.refresh()
		}
	}
	return m, nil
}

func (m browseModel) formView() string {
	t := m.cfg.Theme
	cw := m.contentWidth()
	w := m.editor.Working()

	heading := "New entry"
	if m.editor.State() == draft.Editing {
		heading = "Edit entry " + w.ID
	}

	label := func(f int, name string) string {
		if m.focus == f {
			return t.AccentStyle().Render("▸ " + name)
		}
		return t.HelpStyle().Render("  " + name)
	}

	var photos strings.Builder
	if len(w.Photo) == 0 {
		photos.WriteString(t.HelpStyle().Render("    none (ctrl+o to attach)"))
	}
	for i, p := range w.Photo {
		line := fmt.Sprintf("    %d. %s", i+1, p)
		if m.focus == fieldPhotos && i == m.photoIdx {
			photos.WriteString(t.AccentStyle().Render(line))
		} else {
			photos.WriteString(t.ViewPaneStyle().Render(line))
		}
		if i < len(w.Photo)-1 {
			photos.WriteString("\n")
		}
	}

	sections := []string{
		t.HeaderStyle().Width(cw).Render(heading),
		label(fieldTitle, "Title") + "\n  " + m.title.View(),
		label(fieldDate, "Date") + "\n  " + m.date.View(),
		label(fieldStory, "Story") + "\n" + m.story.View(),
		label(fieldPhotos, fmt.Sprintf("Photos %d/%d", len(w.Photo), entry.MaxPhotos)) + "\n" + photos.String(),
	}
	if m.photoActive {
		sections = append(sections, m.photoInput.View())
	}
	hint := "tab next • ctrl+s save • esc cancel • ctrl+e $EDITOR • ctrl+o photos"
	if m.editor.State() == draft.Editing {
		hint += " • ctrl+d delete"
	}
	sections = append(sections, t.HelpStyle().Width(cw).Render(hint))
	return strings.Join(sections, "\n")
}

func (m browseModel) listView() string {
	t := m.cfg.Theme
	cw := m.contentWidth()
	var sections []string
	if ind := FilterIndicator(m.query); ind != "" {
		sections = append(sections, t.AccentStyle().Width(cw).Render(ind+"  (x clear all)"))
	}
	if len(m.entries) == 0 {
		empty := "No diary entries yet. Press n to write one."
		if !m.query.IsZero() {
			empty = "No entries match."
		}
		sections = append(sections, t.ViewPaneStyle().Width(cw).Render(empty))
	} else {
		sections = append(sections, m.list.View())
	}
	if m.searchActive {
		sections = append(sections, m.search.View())
	} else {
		sections = append(sections, t.HelpStyle().Width(cw).Render("n new • enter open • e edit • d delete • / search • c calendar • ? help • q quit"))
	}
	return strings.Join(sections, "\n")
}

func (m browseModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	t := m.cfg.Theme

	if m.helpActive {
		return t.EraseLineEnds(m.helpOverlay())
	}
	if m.calendarActive {
		placed := lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.calendarView(),
			lipgloss.WithWhitespaceBackground(t.Background))
		return t.EraseLineEnds(placed)
	}

	cw := m.contentWidth()
	var result string
	switch m.screen {
	case screenList:
		result = m.listView()
	case screenDetail:
		footer := t.HelpStyle().Width(cw).Render("↑/↓ scroll • e edit • d delete • esc back • q quit")
		result = m.detail.View() + "\n" + footer
	case screenForm:
		result = m.formView()
	}

	if m.prompt != "" {
		result += "\n" + t.DangerStyle().Width(cw).Render(m.prompt+" [y/N] ")
	}
	if m.notice != "" {
		result += "\n" + t.NoticeStyle().Render(m.notice+"  (any key to dismiss)")
	}
	return t.PaintScreen(result, m.width, m.height, cw)
}

func (m browseModel) helpOverlay() string {
	help := m.cfg.Theme.BorderStyle().
		Padding(1, 2).
		Width(52).
		Render(`Browse
  ↑/↓        navigate
  enter      open entry
  n          new entry
  e / d      edit / delete entry
  /          search title, story and date
  c          calendar: pick a day to filter
  x          clear all filters

Entry form
  tab        next field
  ctrl+s     save
  esc        cancel (asks first)
  ctrl+d     delete (asks first)
  ctrl+e     write the story in $EDITOR
  ctrl+o     attach photos (up to 5)
  x          remove the highlighted photo

  q          quit     ? close help`)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, help,
		lipgloss.WithWhitespaceBackground(m.cfg.Theme.Background))
}

// RunBrowser launches the interactive browser over j until the user quits.
func RunBrowser(j Journal, cfg BrowserConfig) error {
	m := newBrowseModel(j, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Listeners may fire from inside Update, so never block on Send there.
	cancel := j.OnChange(func([]entry.Entry) {
		go p.Send(journalChangedMsg{})
	})
	defer cancel()

	result, err := p.Run()
	if err != nil {
		return err
	}
	if bm, ok := result.(browseModel); ok && bm.err != nil {
		return bm.err
	}
	return nil
}
