package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chris-regnier/daybook/internal/config"
	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/filter"
)

// memJournal implements Journal for testing.
type memJournal struct {
	entries   map[string]entry.Entry
	listeners []func([]entry.Entry)
}

func newMemJournal(entries ...entry.Entry) *memJournal {
	j := &memJournal{entries: map[string]entry.Entry{}}
	for _, e := range entries {
		j.entries[e.ID] = e
	}
	return j
}

func (j *memJournal) Entries() []entry.Entry {
	out := make([]entry.Entry, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e.Clone())
	}
	filter.SortByDateDesc(out)
	return out
}

func (j *memJournal) Get(id string) (entry.Entry, bool) {
	e, ok := j.entries[id]
	return e.Clone(), ok
}

func (j *memJournal) Upsert(ctx context.Context, e entry.Entry) ([]entry.Entry, error) {
	j.entries[e.ID] = e.Clone()
	return j.changed(), nil
}

func (j *memJournal) Remove(ctx context.Context, id string) ([]entry.Entry, error) {
	delete(j.entries, id)
	return j.changed(), nil
}

func (j *memJournal) OnChange(fn func([]entry.Entry)) func() {
	j.listeners = append(j.listeners, fn)
	return func() {}
}

func (j *memJournal) changed() []entry.Entry {
	snap := j.Entries()
	for _, fn := range j.listeners {
		fn(snap)
	}
	return snap
}

var browseNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local)

func testJournal() *memJournal {
	return newMemJournal(
		entry.Entry{ID: "beach001", Title: "Beach", Story: "sand and sun", Date: time.Date(2025, 6, 3, 10, 0, 0, 0, time.Local)},
		entry.Entry{ID: "hike0001", Title: "Hike", Story: "great day on the ridge", Date: time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local), Photo: []string{"a.jpg"}},
		entry.Entry{ID: "work0001", Title: "Work", Story: "long meeting", Date: time.Date(2025, 5, 20, 17, 0, 0, 0, time.Local)},
	)
}

func newTestBrowser(t *testing.T, j Journal) browseModel {
	t.Helper()
	cfg := BrowserConfig{
		Theme: ResolveTheme(config.ThemeConfig{Preset: "default-dark"}),
		Now:   func() time.Time { return browseNow },
	}
	m := newBrowseModel(j, cfg)
	sized, _ := m.Update(tea.WindowSizeMsg{Width: 90, Height: 30})
	return sized.(browseModel)
}

func press(t *testing.T, m browseModel, keys ...string) browseModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "ctrl+d":
			msg = tea.KeyMsg{Type: tea.KeyCtrlD}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(browseModel)
	}
	return m
}

func typeText(t *testing.T, m browseModel, s string) browseModel {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(browseModel)
	}
	return m
}

func ids(entries []entry.Entry) string {
	var out []string
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return strings.Join(out, ",")
}

func TestBrowseListsNewestFirst(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	if got := ids(m.entries); got != "beach001,hike0001,work0001" {
		t.Fatalf("entries = %s", got)
	}
	view := stripANSI(m.View())
	if !strings.Contains(view, "3 Jun 2025 · Beach") {
		t.Errorf("list view missing beach entry:\n%s", view)
	}
}

func TestBrowseEmptyJournal(t *testing.T) {
	m := newTestBrowser(t, newMemJournal())
	view := stripANSI(m.View())
	if !strings.Contains(view, "No diary entries yet") {
		t.Errorf("expected empty message, got:\n%s", view)
	}
}

func TestBrowseSearchFiltersLive(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	m = press(t, m, "/")
	if !m.searchActive {
		t.Fatal("expected search to be active")
	}
	m = typeText(t, m, "RIDGE")
	if got := ids(m.entries); got != "hike0001" {
		t.Fatalf("after search entries = %s", got)
	}
	m = press(t, m, "enter")
	if m.searchActive {
		t.Error("enter should leave search mode")
	}
	if m.query.Text != "RIDGE" {
		t.Errorf("query text = %q", m.query.Text)
	}
	view := stripANSI(m.View())
	if !strings.Contains(view, `matching "RIDGE"`) {
		t.Errorf("missing filter indicator:\n%s", view)
	}

	m = press(t, m, "x")
	if !m.query.IsZero() || len(m.entries) != 3 {
		t.Errorf("x should clear filters, got query %+v and %d entries", m.query, len(m.entries))
	}
}

func TestBrowseCalendarSelectsDay(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	m = press(t, m, "c")
	if !m.calendarActive {
		t.Fatal("expected calendar overlay")
	}
	view := stripANSI(m.View())
	if !strings.Contains(view, "June 2025") {
		t.Errorf("calendar should open on the current month:\n%s", view)
	}

	// 10 Jun -> 3 Jun
	m = press(t, m, "up", "enter")
	if m.calendarActive {
		t.Error("enter should close the calendar")
	}
	if m.query.Day != "2025-06-03" {
		t.Fatalf("day = %q", m.query.Day)
	}
	if got := ids(m.entries); got != "beach001" {
		t.Fatalf("entries = %s", got)
	}

	// Search narrows within the selected day.
	m = press(t, m, "/")
	m = typeText(t, m, "ridge")
	if len(m.entries) != 0 {
		t.Errorf("expected no matches, got %s", ids(m.entries))
	}
	view = stripANSI(m.View())
	if !strings.Contains(view, "No entries match.") {
		t.Errorf("expected no-match message:\n%s", view)
	}
}

func TestBrowseCalendarMonthNavigation(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	m = press(t, m, "c", "[")
	if !strings.Contains(stripANSI(m.View()), "May 2025") {
		t.Errorf("[ should move to the previous month")
	}
	m = press(t, m, "t")
	if !m.cursor.Equal(browseNow) {
		t.Errorf("t should jump to today, cursor = %v", m.cursor)
	}
	m = press(t, m, "x")
	if m.calendarActive || m.query.Day != "" {
		t.Errorf("x should clear the day and close")
	}
}

func TestBrowseDetail(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	m = press(t, m, "down", "enter")
	if m.screen != screenDetail {
		t.Fatalf("screen = %d, want detail", m.screen)
	}
	if m.shown.ID != "hike0001" {
		t.Fatalf("shown = %s", m.shown.ID)
	}
	view := stripANSI(m.View())
	if !strings.Contains(view, "Hike") || !strings.Contains(view, "a.jpg") {
		t.Errorf("detail view incomplete:\n%s", view)
	}
	m = press(t, m, "esc")
	if m.screen != screenList {
		t.Errorf("esc should return to list")
	}
}

func TestBrowseCreateEntry(t *testing.T) {
	j := testJournal()
	m := newTestBrowser(t, j)
	m = press(t, m, "n")
	if m.screen != screenForm || m.editor.State() != draft.Creating {
		t.Fatalf("expected create form, screen=%d state=%s", m.screen, m.editor.State())
	}
	if m.date.Value() != "2025-06-10" {
		t.Errorf("new entry should default to today, got %q", m.date.Value())
	}

	m = typeText(t, m, "Picnic")
	m = press(t, m, "tab", "tab")
	m = typeText(t, m, "ate outside")
	m = press(t, m, "ctrl+s")

	if m.notice != "" {
		t.Fatalf("unexpected notice: %s", m.notice)
	}
	if len(j.entries) != 4 {
		t.Fatalf("journal has %d entries, want 4", len(j.entries))
	}
	if m.screen != screenDetail || m.shown.Title != "Picnic" || m.shown.Story != "ate outside" {
		t.Errorf("expected detail of saved entry, got %+v", m.shown)
	}
	if err := entry.ValidateID(m.shown.ID); err != nil {
		t.Errorf("saved ID: %v", err)
	}
}

func TestBrowseEditChangesDate(t *testing.T) {
	j := testJournal()
	m := newTestBrowser(t, j)
	m = press(t, m, "e")
	if m.editor.State() != draft.Editing {
		t.Fatalf("state = %s", m.editor.State())
	}
	m = press(t, m, "tab")
	m.date.SetValue("2024-12-25")
	m = press(t, m, "ctrl+s")

	got := j.entries["beach001"]
	if entry.DayKey(got.Date) != "2024-12-25" {
		t.Errorf("date = %v", got.Date)
	}
	if got.Title != "Beach" {
		t.Errorf("title changed to %q", got.Title)
	}
}

func TestBrowseInvalidDateShowsNotice(t *testing.T) {
	j := testJournal()
	m := newTestBrowser(t, j)
	m = press(t, m, "e", "tab")
	m.date.SetValue("not a date")
	m = press(t, m, "ctrl+s")
	if m.notice == "" {
		t.Fatal("expected a notice")
	}
	if m.screen != screenForm {
		t.Error("form should stay open")
	}
	// Any key dismisses the notice.
	m = press(t, m, "z")
	if m.notice != "" {
		t.Error("notice not dismissed")
	}
}

func TestBrowseCancelAsksFirst(t *testing.T) {
	j := testJournal()
	m := newTestBrowser(t, j)
	m = press(t, m, "e")
	m = typeText(t, m, " trip")

	m = press(t, m, "esc")
	if m.prompt != draft.CancelPrompt {
		t.Fatalf("prompt = %q", m.prompt)
	}
	m = press(t, m, "n")
	if m.screen != screenForm || m.title.Value() != "Beach trip" {
		t.Fatalf("answering no should keep the form, title=%q", m.title.Value())
	}

	m = press(t, m, "esc", "y")
	if m.screen != screenList {
		t.Errorf("answering yes should close the form")
	}
	if j.entries["beach001"].Title != "Beach" {
		t.Errorf("cancel must not save")
	}
}

func TestBrowseDeleteAsksFirst(t *testing.T) {
	j := testJournal()
	m := newTestBrowser(t, j)

	m = press(t, m, "d")
	if m.prompt != draft.DeletePrompt {
		t.Fatalf("prompt = %q", m.prompt)
	}
	m = press(t, m, "n")
	if _, ok := j.entries["beach001"]; !ok {
		t.Fatal("no should keep the entry")
	}

	m = press(t, m, "ctrl+d", "y")
	if _, ok := j.entries["beach001"]; ok {
		t.Fatal("entry should be deleted")
	}
	if m.screen != screenList || len(m.entries) != 2 {
		t.Errorf("expected list with 2 entries, screen=%d entries=%s", m.screen, ids(m.entries))
	}
}

func TestBrowseDeleteNotOfferedWhenCreating(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	m = press(t, m, "n", "ctrl+d")
	if m.prompt != "" {
		t.Error("no delete prompt for a new entry")
	}
	if m.notice != draft.ErrNotEditing.Error() {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestBrowseRemovePhoto(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	m = press(t, m, "down", "e", "tab", "tab", "tab")
	if m.focus != fieldPhotos {
		t.Fatalf("focus = %d", m.focus)
	}
	m = press(t, m, "x")
	if n := len(m.editor.Working().Photo); n != 0 {
		t.Errorf("photos = %d, want 0", n)
	}
}

func TestBrowseAttachWithoutLibrary(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	m = press(t, m, "n")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m = next.(browseModel)
	if !m.photoActive {
		t.Fatal("ctrl+o should open the path prompt")
	}
	m = typeText(t, m, "/tmp/x.png")
	m = press(t, m, "enter")
	if m.notice == "" {
		t.Error("expected a notice without a photo library")
	}
}

func TestBrowseRefreshesOnJournalChange(t *testing.T) {
	j := testJournal()
	m := newTestBrowser(t, j)
	j.Upsert(context.Background(), entry.Entry{ID: "late0001", Title: "Late", Date: browseNow})

	next, _ := m.Update(journalChangedMsg{})
	m = next.(browseModel)
	if got := ids(m.entries); !strings.HasPrefix(got, "late0001,") {
		t.Errorf("entries = %s", got)
	}
}

func TestBrowseDetailClosesWhenEntryRemoved(t *testing.T) {
	j := testJournal()
	m := newTestBrowser(t, j)
	m = press(t, m, "enter")
	j.Remove(context.Background(), "beach001")

	next, _ := m.Update(journalChangedMsg{})
	m = next.(browseModel)
	if m.screen != screenList {
		t.Errorf("detail of a removed entry should fall back to the list")
	}
}

func TestBrowseHelpOverlay(t *testing.T) {
	m := newTestBrowser(t, testJournal())
	m = press(t, m, "?")
	if !strings.Contains(stripANSI(m.View()), "calendar: pick a day") {
		t.Error("help overlay not shown")
	}
	m = press(t, m, "?")
	if m.helpActive {
		t.Error("? should close help")
	}
}

func TestBrowseRespectsMaxWidth(t *testing.T) {
	cfg := BrowserConfig{
		MaxWidth: 60,
		Theme:    ResolveTheme(config.ThemeConfig{Preset: "default-dark"}),
		Now:      func() time.Time { return browseNow },
	}
	m := newBrowseModel(testJournal(), cfg)
	sized, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = sized.(browseModel)
	if got := m.contentWidth(); got != 60 {
		t.Errorf("contentWidth = %d, want 60", got)
	}
	if got := countLines(m.View()); got > 30 {
		t.Errorf("view has %d lines, taller than the terminal", got)
	}
}
