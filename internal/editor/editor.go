// Package editor opens an entry's story in the user's $EDITOR.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ResolveEditor determines which editor to use based on config, env vars, and fallback.
func ResolveEditor(configEditor string) string {
	if configEditor != "" {
		return configEditor
	}
	if ed := os.Getenv("EDITOR"); ed != "" {
		return ed
	}
	if ed := os.Getenv("VISUAL"); ed != "" {
		return ed
	}
	return "vi"
}

// StoryFile is a temp file holding a story while an editor has it open.
type StoryFile struct {
	Path     string
	original string
}

// NewStoryFile writes story to a fresh temp file.
func NewStoryFile(story string) (*StoryFile, error) {
	tmp, err := os.CreateTemp("", "daybook-story-*.md")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.WriteString(story); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	return &StoryFile{Path: tmp.Name(), original: story}, nil
}

// Command builds the editor invocation for the file. The caller wires up
// stdio, or hands the command to tea.ExecProcess.
func (f *StoryFile) Command(editorCmd string) (*exec.Cmd, error) {
	parts := strings.Fields(editorCmd)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty editor command")
	}
	args := append(parts[1:], f.Path)
	return exec.Command(parts[0], args...), nil
}

// Result reads the edited story. Trailing newlines that editors append are
// dropped. An emptied file is a valid, changed story.
func (f *StoryFile) Result() (story string, changed bool, err error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", false, fmt.Errorf("reading edited file: %w", err)
	}
	story = strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(story) == strings.TrimSpace(f.original) {
		return f.original, false, nil
	}
	return story, true, nil
}

// Remove deletes the temp file.
func (f *StoryFile) Remove() {
	os.Remove(f.Path)
}

// Edit opens story in an editor attached to the terminal and returns the
// edited text. Saving it unchanged reports changed=false.
func Edit(editorCmd string, story string) (content string, changed bool, err error) {
	f, err := NewStoryFile(story)
	if err != nil {
		return "", false, err
	}
	defer f.Remove()

	cmd, err := f.Command(editorCmd)
	if err != nil {
		return "", false, err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", false, fmt.Errorf("editor exited with error: %w", err)
	}
	return f.Result()
}
