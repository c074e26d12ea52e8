package cmd

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chris-regnier/daybook/internal/config"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/journal"
	"github.com/chris-regnier/daybook/internal/logging"
	"github.com/chris-regnier/daybook/internal/storage/local"
)

// setupTestEnv points the command globals at a fresh local diary holding
// entries.
func setupTestEnv(t *testing.T, entries ...entry.Entry) {
	t.Helper()
	dir := t.TempDir()
	backend, err := local.New(dir)
	if err != nil {
		t.Fatalf("creating test storage: %v", err)
	}
	if err := backend.Save(context.Background(), entries); err != nil {
		t.Fatalf("seeding test storage: %v", err)
	}
	j := journal.New(backend, nil)
	if err := j.Load(context.Background()); err != nil {
		t.Fatalf("loading journal: %v", err)
	}

	diary = j
	appConfig = &config.Config{Storage: "local", DataDir: dir, MaxWidth: 100}
	logger = logging.Nop()
	authClient = nil
	jsonOutput = false

	t.Cleanup(func() {
		j.Close(context.Background())
		backend.Close()
		diary = nil
		jsonOutput = false
	})
}

func day(s string) time.Time {
	t, err := entry.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t.Add(19 * time.Hour)
}

func sampleEntries() []entry.Entry {
	return []entry.Entry{
		{ID: "beach001", Title: "Beach", Story: "sand and sun", Date: day("2025-06-03")},
		{ID: "hike0001", Title: "Hike", Story: "great day on the ridge", Date: day("2025-06-02"), Photo: []string{"a.jpg", "b.jpg"}},
		{ID: "work0001", Title: "Work", Story: "long meeting", Date: day("2025-05-20")},
	}
}

// A 1x1 transparent PNG.
const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func writePNG(t *testing.T, name string) string {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(pixelPNG)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
