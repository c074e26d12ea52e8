// Package draft is the entry editor: it holds a working copy of one entry
// while the user creates or edits it, and commits it to the journal on save.
package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/photo"
)

// Prompts shown before destructive actions.
const (
	CancelPrompt = "Do you want to cancel? All changes will be lost."
	DeletePrompt = "Do you want to delete? This cannot be undone."
)

// Notices surfaced to the user. None of them changes the working copy.
var (
	ErrPhotoLimit       = fmt.Errorf("limit reached: you can only add up to %d photos", entry.MaxPhotos)
	ErrPermissionDenied = errors.New("permission needed: please allow access to your photos")
	ErrNotOpen          = errors.New("editor is not open")
	ErrNotEditing       = errors.New("only an existing entry can be deleted")
	ErrPhotoIndex       = errors.New("no photo at that position")
)

// State is the editor's mode.
type State int

const (
	Closed State = iota
	Creating
	Editing
)

func (s State) String() string {
	switch s {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	default:
		return "closed"
	}
}

// Sink receives committed changes. *journal.Store satisfies it.
type Sink interface {
	Upsert(ctx context.Context, e entry.Entry) ([]entry.Entry, error)
	Remove(ctx context.Context, id string) ([]entry.Entry, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Editor is not safe for concurrent use; one editor belongs to one UI.
type Editor struct {
	sink    Sink
	confirm Confirmer
	now     func() time.Time

	state    State
	working  entry.Entry
	original entry.Entry
}

// Option configures an Editor.
type Option func(*Editor)

// WithClock overrides time.Now for default dates.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// New returns a closed editor.
func New(sink Sink, confirm Confirmer, opts ...Option) *Editor {
	e := &Editor{sink: sink, confirm: confirm, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current mode.
func (e *Editor) State() State {
	return e.state
}

// BeginCreate opens a blank entry dated now.
func (e *Editor) BeginCreate() {
	e.state = Creating
	e.working = entry.Entry{Date: e.now(), Photo: []string{}}
	e.original = e.working.Clone()
}

// BeginEdit opens a copy of an existing entry. Nothing the editor does
// touches src until Save.
func (e *Editor) BeginEdit(src entry.Entry) {
	e.state = Editing
	e.working = src.Clone()
	e.original = src.Clone()
}

// Working returns a copy of the entry being edited.
func (e *Editor) Working() entry.Entry {
	return e.working.Clone()
}

// Dirty reports whether the working copy differs from what was opened.
func (e *Editor) Dirty() bool {
	if e.state == Closed {
		return false
	}
	w, o := e.working, e.original
	if w.Title != o.Title || w.Story != o.Story || !w.Date.Equal(o.Date) || len(w.Photo) != len(o.Photo) {
		return true
	}
	for i := range w.Photo {
		if w.Photo[i] != o.Photo[i] {
			return true
		}
	}
	return false
}

func (e *Editor) SetTitle(title string) error {
	if e.state == Closed {
		return ErrNotOpen
	}
	e.working.Title = title
	return nil
}

func (e *Editor) SetStory(story string) error {
	if e.state == Closed {
		return ErrNotOpen
	}
	e.working.Story = story
	return nil
}

// SelectDate sets the entry's date. Any date is accepted.
func (e *Editor) SelectDate(t time.Time) error {
	if e.state == Closed {
		return ErrNotOpen
	}
	e.working.Date = t
	return nil
}

// AddPhotos appends refs up to the photo cap and reports how many were
// added. Extra refs are dropped silently; ErrPhotoLimit is returned only when
// the entry was already full.
func (e *Editor) AddPhotos(refs []string) (int, error) {
	if e.state == Closed {
		return 0, ErrNotOpen
	}
	room := entry.MaxPhotos - len(e.working.Photo)
	if room <= 0 {
		return 0, ErrPhotoLimit
	}
	if len(refs) > room {
		refs = refs[:room]
	}
	e.working.Photo = append(e.working.Photo, refs...)
	return len(refs), nil
}

// AttachPhotos asks src for permission and then for up to the remaining
// number of photos. A denied permission or a full entry leaves the photos
// unchanged and returns the matching notice; a cancelled pick is not an
// error.
func (e *Editor) AttachPhotos(ctx context.Context, src photo.Source) (int, error) {
	if e.state == Closed {
		return 0, ErrNotOpen
	}
	granted, err := src.RequestPermission(ctx)
	if err != nil {
		return 0, err
	}
	if !granted {
		return 0, ErrPermissionDenied
	}
	room := entry.MaxPhotos - len(e.working.Photo)
	if room <= 0 {
		return 0, ErrPhotoLimit
	}
	refs, err := src.Pick(ctx, room)
	if errors.Is(err, photo.ErrCancelled) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return e.AddPhotos(refs)
}

// RemovePhoto drops the photo at index i from the working copy.
func (e *Editor) RemovePhoto(i int) error {
	if e.state == Closed {
		return ErrNotOpen
	}
	if i < 0 || i >= len(e.working.Photo) {
		return ErrPhotoIndex
	}
	e.working.Photo = append(e.working.Photo[:i], e.working.Photo[i+1:]...)
	return nil
}

// Save commits the working copy, minting an ID for new entries, and closes
// the editor. On error the editor stays open so nothing is lost.
func (e *Editor) Save(ctx context.Context) (entry.Entry, error) {
	if e.state == Closed {
		return entry.Entry{}, ErrNotOpen
	}
	out := e.working.Clone()
	if out.ID == "" {
		id, err := entry.NewID()
		if err != nil {
			return entry.Entry{}, fmt.Errorf("generating entry ID: %w", err)
		}
		out.ID = id
	}
	if _, err := e.sink.Upsert(ctx, out); err != nil {
		return entry.Entry{}, err
	}
	e.reset()
	return out, nil
}

// Cancel asks for confirmation and, if given, discards the working copy.
// It reports whether the editor closed.
func (e *Editor) Cancel(ctx context.Context) (bool, error) {
	if e.state == Closed {
		return true, nil
	}
	ok, err := e.confirm.Confirm(ctx, CancelPrompt)
	if err != nil || !ok {
		return false, err
	}
	e.reset()
	return true, nil
}

// Delete asks for confirmation and, if given, removes the entry being
// edited. It reports whether the entry was deleted.
func (e *Editor) Delete(ctx context.Context) (bool, error) {
	if e.state != Editing {
		return false, ErrNotEditing
	}
	ok, err := e.confirm.Confirm(ctx, DeletePrompt)
	if err != nil || !ok {
		return false, err
	}
	if _, err := e.sink.Remove(ctx, e.working.ID); err != nil {
		return false, err
	}
	e.reset()
	return true, nil
}

func (e *Editor) reset() {
	e.state = Closed
	e.working = entry.Entry{}
	e.original = entry.Entry{}
}
