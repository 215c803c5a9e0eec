package fsutil

import (
	"io"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_CreateAndRead(t *testing.T) {
	fs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "reports", "box-0")

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	path := filepath.Join(dir, "trajectory.txt")
	w, err := fs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := io.WriteString(w, "box mean\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "box mean\n" {
		t.Errorf("unexpected contents %q", data)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	m := NewMemoryFileSystem()

	if err := m.WriteFile("results.csv", []byte("x,y\n1,2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := m.ReadFile("./results.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "x,y\n1,2\n" {
		t.Errorf("unexpected contents %q", data)
	}

	// Returned data is a copy.
	data[0] = 'z'
	again, _ := m.ReadFile("results.csv")
	if again[0] != 'x' {
		t.Error("ReadFile result aliases the stored data")
	}
}

func TestMemoryFileSystem_ReadNonExistent(t *testing.T) {
	m := NewMemoryFileSystem()
	if _, err := m.ReadFile("missing.csv"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("out/box.html")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("<html>")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	before, _ := m.ReadFile("out/box.html")
	if len(before) != 0 {
		t.Errorf("expected empty file before close, got %q", before)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	after, _ := m.ReadFile("out/box.html")
	if string(after) != "<html>" {
		t.Errorf("unexpected contents after close %q", after)
	}
}

func TestMemoryFileSystem_MkdirAllAndFiles(t *testing.T) {
	m := NewMemoryFileSystem()

	if err := m.MkdirAll("reports/run-1/box-0", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, dir := range []string{"reports", "reports/run-1", "reports/run-1/box-0"} {
		if !m.Exists(dir) {
			t.Errorf("expected %s to exist", dir)
		}
	}

	_ = m.WriteFile("reports/run-1/b.txt", nil, 0o644)
	_ = m.WriteFile("reports/run-1/a.txt", nil, 0o644)
	_ = m.WriteFile("other/c.txt", nil, 0o644)

	got := m.Files("reports")
	want := []string{filepath.Join("reports", "run-1", "a.txt"), filepath.Join("reports", "run-1", "b.txt")}
	if len(got) != len(want) {
		t.Fatalf("Files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if n := len(m.Files(".")); n != 3 {
		t.Errorf("expected 3 files at root, got %d", n)
	}
}
