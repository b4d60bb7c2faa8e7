package listfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type entry struct {
	ID   string `json:"id" yaml:"id"`
	Size int    `json:"size" yaml:"size"`
}

func TestParseFormats(t *testing.T) {
	cases := []struct {
		name string
		ext  string
		data string
	}{
		{name: "yaml", ext: ".yaml", data: "entries:\n  - id: a\n    size: 1\n  - id: b\n    size: 2\nother: true\n"},
		{name: "json object", ext: ".json", data: `{"entries":[{"id":"a","size":1},{"id":"b","size":2}],"other":true}`},
		{name: "bare array", ext: ".json", data: ` [{"id":"a","size":1},{"id":"b","size":2}]`},
		{name: "bare array in yml", ext: ".yml", data: `[{"id":"a","size":1},{"id":"b","size":2}]`},
		{name: "no extension yaml", ext: "", data: "entries:\n  - {id: a, size: 1}\n  - {id: b, size: 2}\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := Parse[entry]([]byte(tc.data), tc.ext, "entries")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(list) != 2 || list[0] != (entry{ID: "a", Size: 1}) || list[1].ID != "b" {
				t.Fatalf("unexpected entries %#v", list)
			}
		})
	}
}

func TestParseMissingKeyIsEmpty(t *testing.T) {
	list, err := Parse[entry]([]byte("something_else: []\n"), ".yaml", "entries")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no entries, got %#v err=%v", list, err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse[entry]([]byte("entries: [unterminated"), "", "entries"); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("expected ErrUnrecognized, got %v", err)
	}
	if _, err := Parse[entry]([]byte(`{"entries": 5}`), ".json", "entries"); err == nil {
		t.Fatalf("expected error for non-list entries")
	}
	if _, err := Parse[entry]([]byte(`[{"id":`), ".json", "entries"); err == nil {
		t.Fatalf("expected error for truncated array")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.yaml")
	if err := os.WriteFile(path, []byte("entries:\n  - id: only\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	list, err := Read[entry](path, "entries")
	if err != nil || len(list) != 1 || list[0].ID != "only" {
		t.Fatalf("unexpected read %#v err=%v", list, err)
	}
	if _, err := Read[entry](" ", "entries"); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
