package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no images", nil},
		{"three images", []string{"a.png", "b.png", "c.png"}},
		{"bad workers", []string{"-workers", "many", "a.png"}},
		{"unknown flag", []string{"-fast", "a.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, exitError, run(tt.args))
		})
	}
}

func TestRunFailsOnMissingImage(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("REPORT_BACKEND", "local")
	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, exitError, run([]string{"-out", t.TempDir(), "/nonexistent/first.png"}))
}
