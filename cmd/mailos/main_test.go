package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestBuildRegistry(t *testing.T) {
	registry, err := buildRegistry(zerolog.Nop())
	if err != nil {
		t.Fatalf("buildRegistry failed: %v", err)
	}

	listed := registry.List()
	if len(listed) != 1 {
		t.Fatalf("Expected 1 registered tool, got %d", len(listed))
	}
	if listed[0].Name != "read_csv" {
		t.Errorf("Unexpected tool %q", listed[0].Name)
	}
	if listed[0].Function == nil {
		t.Error("Expected the registered tool to carry an implementation")
	}
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("name,count\nalpha,1\nbeta,2\n"), 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	out, err := readCSV(map[string]any{"input_path": path})
	if err != nil {
		t.Fatalf("readCSV failed: %v", err)
	}
	rows, ok := out.([][]string)
	if !ok {
		t.Fatalf("Unexpected result type %T", out)
	}
	want := [][]string{{"name", "count"}, {"alpha", "1"}, {"beta", "2"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Unexpected rows: %v", rows)
	}
}

func TestReadCSVMissingArgument(t *testing.T) {
	if _, err := readCSV(map[string]any{}); err == nil {
		t.Error("Expected an error when input_path is absent")
	}
}
