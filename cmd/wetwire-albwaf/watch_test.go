package main

import (
	"path/filepath"
	"testing"
)

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd(&globalOptions{})

	if cmd.Use != "watch" {
		t.Errorf("Use = %q, want 'watch'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	for _, name := range []string{"debounce", "format", "output"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing --%s flag", name)
		}
	}
}

func TestDebounceDefault(t *testing.T) {
	cmd := newWatchCmd(&globalOptions{})

	flag := cmd.Flags().Lookup("debounce")
	if flag == nil {
		t.Fatal("missing --debounce flag")
	}

	if flag.DefValue != "500ms" {
		t.Errorf("debounce default = %q, want '500ms'", flag.DefValue)
	}
}

func TestWatchedFiles(t *testing.T) {
	configPath, contextPath := offlineFixture(t)

	files, err := (&globalOptions{configPath: configPath}).watchedFiles()
	if err != nil {
		t.Fatalf("watchedFiles() error = %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("watchedFiles() = %v, want 2 files", files)
	}
	if files[0] != filepath.Clean(configPath) {
		t.Errorf("files[0] = %s, want %s", files[0], configPath)
	}
	if files[1] != filepath.Clean(contextPath) {
		t.Errorf("files[1] = %s, want %s", files[1], contextPath)
	}
}
