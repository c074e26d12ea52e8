package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SessionFile stores a Session as JSON, readable only by the owner.
type SessionFile struct {
	Path string
}

// NewSessionFile returns a session file at dataDir/session.json.
func NewSessionFile(dataDir string) *SessionFile {
	return &SessionFile{Path: filepath.Join(dataDir, "session.json")}
}

// Load returns the stored session, or nil when there is none.
func (f *SessionFile) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", f.Path, err)
	}
	if s.User.UID == "" {
		return nil, nil
	}
	return &s, nil
}

// Save writes the session atomically.
func (f *SessionFile) Save(s Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Remove deletes the stored session. A missing file is not an error.
func (f *SessionFile) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
