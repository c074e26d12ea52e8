package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestBackupAndRestore(t *testing.T) {
	setupTestEnv(t, sampleEntries()...)
	appConfig.Serve.BackupKeep = 5

	var buf bytes.Buffer
	if err := backupRun(&buf); err != nil {
		t.Fatalf("backupRun: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Exported 3 entries to ") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := backupListRun(&buf); err != nil {
		t.Fatalf("backupListRun: %v", err)
	}
	files := strings.Fields(buf.String())
	if len(files) != 1 || filepath.Dir(files[0]) != backupDir() {
		t.Fatalf("backups = %v", files)
	}
	path := files[0]

	// Restore into a fresh diary.
	setupTestEnv(t)
	if err := backupRestoreRun(context.Background(), &bytes.Buffer{}, path); err != nil {
		t.Fatalf("backupRestoreRun: %v", err)
	}
	got, ok := diary.Get("hike0001")
	if !ok || got.Story != "great day on the ridge" || len(got.Photo) != 2 {
		t.Errorf("restored entry = %+v, %v", got, ok)
	}
	if len(diary.Entries()) != 3 {
		t.Errorf("entries = %d, want 3", len(diary.Entries()))
	}
}

func TestBackupDir(t *testing.T) {
	setupTestEnv(t)
	if got := backupDir(); got != filepath.Join(appConfig.DataDir, "backups") {
		t.Errorf("default backup dir = %q", got)
	}
	appConfig.Serve.BackupDir = "/srv/daybook"
	if got := backupDir(); got != "/srv/daybook" {
		t.Errorf("configured backup dir = %q", got)
	}
}

func TestBackupListEmpty(t *testing.T) {
	setupTestEnv(t)

	var buf bytes.Buffer
	if err := backupListRun(&buf); err != nil {
		t.Fatalf("backupListRun: %v", err)
	}
	if buf.String() != "No backups found.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	setupTestEnv(t)
	err := backupRestoreRun(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.json"))
	if ExitCode(err) != exitUser {
		t.Errorf("err = %v, want user error", err)
	}
}
