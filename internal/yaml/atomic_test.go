package yaml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestAtomicWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	if err := AtomicWrite(path, sample{Name: "demo", Count: 3}); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}

	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "demo" || got.Count != 3 {
		t.Errorf("loaded %+v", got)
	}
}

func TestAtomicWriteReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	if err := AtomicWrite(path, sample{Name: "old"}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := AtomicWrite(path, sample{Name: "new"}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "new" {
		t.Errorf("name = %q, want new", got.Name)
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")

	if err := AtomicWrite(path, sample{Name: "demo"}); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".troupe-tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	var got sample
	if err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &got); err == nil {
		t.Fatal("Load of missing file succeeded")
	}
}
