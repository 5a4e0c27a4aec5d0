package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsCarryGooseDirectives(t *testing.T) {
	dir := repoMigrationsDir(t)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}

	required := []string{"-- +goose Up", "-- +goose Down"}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", e.Name(), err)
		}
		for _, directive := range required {
			if !strings.Contains(string(b), directive) {
				t.Errorf("%s is missing %q", e.Name(), directive)
			}
		}
	}
}
