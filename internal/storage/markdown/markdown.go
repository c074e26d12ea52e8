package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

// Store implements storage.Storage using one Markdown file per entry with
// YAML front-matter, laid out as entries/YYYY/MM/DD/<id>.md. Undated entries
// live under entries/undated/.
type Store struct {
	baseDir string // e.g. ~/.daybook/entries/
}

// New creates a new Markdown file storage backend.
func New(dataDir string) (*Store, error) {
	entriesDir := filepath.Join(dataDir, "entries")
	if err := os.MkdirAll(entriesDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating entries directory: %v", storage.ErrStorage, err)
	}
	return &Store{baseDir: entriesDir}, nil
}

// Close is a no-op for the Markdown backend.
func (s *Store) Close() error {
	return nil
}

func (s *Store) entryPath(e entry.Entry) string {
	if !e.HasDate() {
		return filepath.Join(s.baseDir, "undated", e.ID+".md")
	}
	t := e.Date.Local()
	return filepath.Join(s.baseDir, t.Format("2006"), t.Format("01"), t.Format("02"), e.ID+".md")
}

type frontMatter struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Date     string   `yaml:"date,omitempty"`
	Photos   []string `yaml:"photos,omitempty"`
	Position int      `yaml:"position"`
}

func marshal(e entry.Entry, position int) ([]byte, error) {
	fm, err := yaml.Marshal(frontMatter{
		ID:       e.ID,
		Title:    e.Title,
		Date:     storage.FormatTimestamp(e.Date),
		Photos:   e.Photo,
		Position: position,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding front-matter for %s: %v", storage.ErrStorage, e.ID, err)
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString(e.Story)
	return b.Bytes(), nil
}

func unmarshal(data []byte) (entry.Entry, int, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return entry.Entry{}, 0, fmt.Errorf("%w: parsing front-matter: %v", storage.ErrCorrupt, err)
	}
	if fm.ID == "" {
		return entry.Entry{}, 0, fmt.Errorf("%w: front-matter has no id", storage.ErrCorrupt)
	}
	photos := fm.Photos
	if photos == nil {
		photos = []string{}
	}
	return entry.Entry{
		ID:    fm.ID,
		Title: fm.Title,
		Story: strings.TrimSpace(string(body)),
		Date:  storage.ParseTimestamp(fm.Date),
		Photo: photos,
	}, fm.Position, nil
}

// atomicWrite writes data to a temp file then renames it to the target path.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating directory: %v", storage.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", storage.ErrStorage, err)
	}
	tmpName := tmp.Name()

	// Lock the temp file during write
	if err := syscall.Flock(int(tmp.Fd()), syscall.LOCK_EX); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: acquiring lock: %v", storage.ErrStorage, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing temp file: %v", storage.ErrStorage, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing temp file: %v", storage.ErrStorage, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: renaming file: %v", storage.ErrStorage, err)
	}

	return nil
}

// walk calls fn for every entry file under the base directory.
func (s *Store) walk(fn func(path string) error) error {
	return filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		return fn(path)
	})
}

// Load reads every entry file. Entries come back in the order they were
// last saved.
func (s *Store) Load(ctx context.Context) ([]entry.Entry, error) {
	type positioned struct {
		e   entry.Entry
		pos int
	}
	var all []positioned

	err := s.walk(func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", storage.ErrStorage, path, err)
		}
		e, pos, err := unmarshal(data)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		all = append(all, positioned{e: e, pos: pos})
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) || errors.Is(err, storage.ErrStorage) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scanning entries: %v", storage.ErrStorage, err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].pos < all[j].pos
	})
	entries := make([]entry.Entry, len(all))
	for i, p := range all {
		entries[i] = p.e
	}
	return entries, nil
}

// Save writes every entry and then removes files for entries no longer in
// the collection, including stale copies left behind by a date change.
func (s *Store) Save(ctx context.Context, entries []entry.Entry) error {
	keep := make(map[string]bool, len(entries))
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := marshal(e, i)
		if err != nil {
			return err
		}
		path := s.entryPath(e)
		if err := atomicWrite(path, data); err != nil {
			return err
		}
		keep[path] = true
	}

	var stale []string
	if err := s.walk(func(path string) error {
		if !keep[path] {
			stale = append(stale, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("%w: scanning entries: %v", storage.ErrStorage, err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: removing %s: %v", storage.ErrStorage, path, err)
		}
		s.pruneEmptyDirs(filepath.Dir(path))
	}
	return nil
}

// pruneEmptyDirs removes empty day/month/year directories up to the base.
func (s *Store) pruneEmptyDirs(dir string) {
	for dir != s.baseDir && strings.HasPrefix(dir, s.baseDir) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
