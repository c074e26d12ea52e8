package cmd

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{base, exitUser},
		{userError(base), exitUser},
		{systemError(base), exitSystem},
		{editorError(base), exitEditor},
		{fmt.Errorf("wrapped: %w", systemError(base)), exitSystem},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
	if !errors.Is(systemError(base), base) {
		t.Error("exit errors should unwrap")
	}
}
