package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.json")
	b, err := PrettyJSON(map[string]int{"rows": 3})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if err := SafeWriteFile(path, b); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "{\n  \"rows\": 3\n}" {
		t.Fatalf("content = %q", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.csv")
	if err := os.WriteFile(file, []byte("a\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cases := map[string]bool{file: true, dir: false, filepath.Join(dir, "nope"): false}
	for path, want := range cases {
		got, err := FileExists(path)
		if err != nil || got != want {
			t.Fatalf("FileExists(%s) = %v, %v; want %v", path, got, err, want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandHome("~/.wrangle/cache")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if got != filepath.Join(home, ".wrangle", "cache") {
		t.Fatalf("got %s", got)
	}
	if got, _ := ExpandHome("/tmp/x/../y"); got != "/tmp/y" {
		t.Fatalf("absolute path = %s", got)
	}
}
