// Package backup writes timestamped JSON exports of the diary on a cron
// schedule while `daybook serve` runs.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

const filePrefix = "daybook-"

// Source supplies the entries to export. *journal.Store satisfies it.
type Source interface {
	Entries() []entry.Entry
}

// Exporter writes exports into Dir, keeping at most Keep of them (0 keeps all).
type Exporter struct {
	Source Source
	Dir    string
	Keep   int
	Log    *zap.SugaredLogger
	Now    func() time.Time
}

// Export writes one export file and returns its path.
func (x *Exporter) Export() (string, error) {
	now := time.Now
	if x.Now != nil {
		now = x.Now
	}
	if err := os.MkdirAll(x.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	data, err := storage.MarshalEntries(x.Source.Entries())
	if err != nil {
		return "", err
	}

	name := filePrefix + now().UTC().Format("20060102T150405.000Z") + ".json"
	path := filepath.Join(x.Dir, name)
	tmp, err := os.CreateTemp(x.Dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing backup: %w", err)
	}

	if x.Keep > 0 {
		if err := x.prune(); err != nil {
			x.logger().Warnw("pruning old backups failed", "dir", x.Dir, "error", err)
		}
	}
	return path, nil
}

// List returns the export files in Dir, oldest first.
func (x *Exporter) List() ([]string, error) {
	des, err := os.ReadDir(x.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, de := range des {
		if de.IsDir() || !strings.HasPrefix(de.Name(), filePrefix) || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		out = append(out, filepath.Join(x.Dir, de.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Read decodes an export file. Exports use the same encoding as the stores,
// so a file can also seed a local backend directly.
func Read(path string) ([]entry.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := storage.UnmarshalEntries(data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return entries, nil
}

func (x *Exporter) prune() error {
	files, err := x.List()
	if err != nil {
		return err
	}
	for len(files) > x.Keep {
		if err := os.Remove(files[0]); err != nil {
			return err
		}
		files = files[1:]
	}
	return nil
}

func (x *Exporter) logger() *zap.SugaredLogger {
	if x.Log == nil {
		return zap.NewNop().Sugar()
	}
	return x.Log
}

// Scheduler runs an Exporter on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	x    *Exporter
}

// NewScheduler parses spec (standard five-field cron syntax or a descriptor
// such as "@daily") and registers the export job.
func NewScheduler(spec string, x *Exporter) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.Local))
	s := &Scheduler{cron: c, x: x}
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	path, err := s.x.Export()
	if err != nil {
		s.x.logger().Errorw("scheduled backup failed", "dir", s.x.Dir, "error", err)
		return
	}
	s.x.logger().Infow("backup written", "path", path)
}

// Run starts the scheduler and blocks until ctx is done. Jobs in flight are
// allowed to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.x.logger().Infow("backup scheduler started", "dir", s.x.Dir)
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
