// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLocalStore_ListPDFs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "b")
	writeFile(t, filepath.Join(root, "a.PDF"), "a")
	writeFile(t, filepath.Join(root, "notes.txt"), "n")
	writeFile(t, filepath.Join(root, "sub", "deeper", "c.Pdf"), "c")
	writeFile(t, filepath.Join(root, ".hidden", "d.pdf"), "d")
	writeFile(t, filepath.Join(root, ".e.pdf"), "e")

	t.Run("recursive, case-insensitive, sorted, hidden skipped", func(t *testing.T) {
		paths, err := NewLocalStore(true).ListPDFs(root)
		if err != nil {
			t.Fatalf("ListPDFs failed: %v", err)
		}
		want := []string{
			filepath.Join(root, "a.PDF"),
			filepath.Join(root, "b.pdf"),
			filepath.Join(root, "sub", "deeper", "c.Pdf"),
		}
		if len(paths) != len(want) {
			t.Fatalf("expected %v, got %v", want, paths)
		}
		for i := range want {
			if paths[i] != want[i] {
				t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
			}
		}
	})

	t.Run("hidden included when requested", func(t *testing.T) {
		paths, err := NewLocalStore(false).ListPDFs(root)
		if err != nil {
			t.Fatalf("ListPDFs failed: %v", err)
		}
		if len(paths) != 5 {
			t.Errorf("expected 5 files, got %v", paths)
		}
	})

	t.Run("root must be a directory", func(t *testing.T) {
		if _, err := NewLocalStore(true).ListPDFs(filepath.Join(root, "b.pdf")); err == nil {
			t.Error("expected error for file root")
		}
		if _, err := NewLocalStore(true).ListPDFs(filepath.Join(root, "missing")); err == nil {
			t.Error("expected error for missing root")
		}
		if _, err := NewLocalStore(true).ListPDFs(""); err == nil {
			t.Error("expected error for empty root")
		}
	})
}

func TestLocalStore_Move(t *testing.T) {
	store := NewLocalStore(true)

	t.Run("moves within directory", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "in.pdf")
		dst := filepath.Join(dir, "out.pdf")
		writeFile(t, src, "content")

		if err := store.Move(src, dst); err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if ok, _ := store.Exists(src); ok {
			t.Error("source still exists")
		}
		data, err := store.ReadFile(dst)
		if err != nil || string(data) != "content" {
			t.Errorf("unexpected destination content %q, err %v", data, err)
		}
	})

	t.Run("never overwrites", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "in.pdf")
		dst := filepath.Join(dir, "out.pdf")
		writeFile(t, src, "new")
		writeFile(t, dst, "old")

		err := store.Move(src, dst)
		if !errors.Is(err, ErrDestinationExists) {
			t.Fatalf("expected ErrDestinationExists, got %v", err)
		}
		data, _ := os.ReadFile(dst)
		if string(data) != "old" {
			t.Errorf("destination was overwritten: %q", data)
		}
	})

	t.Run("directory at destination counts as existing", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "in.pdf")
		writeFile(t, src, "x")
		if err := os.Mkdir(filepath.Join(dir, "taken.pdf"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := store.Move(src, filepath.Join(dir, "taken.pdf")); !errors.Is(err, ErrDestinationExists) {
			t.Errorf("expected ErrDestinationExists, got %v", err)
		}
	})

	t.Run("missing source fails", func(t *testing.T) {
		dir := t.TempDir()
		if err := store.Move(filepath.Join(dir, "nope.pdf"), filepath.Join(dir, "out.pdf")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestIsPDFName(t *testing.T) {
	cases := map[string]bool{
		"a.pdf":     true,
		"a.PDF":     true,
		"a.pdf.txt": false,
		"pdf":       false,
		"a.pdfx":    false,
	}
	for name, want := range cases {
		if got := IsPDFName(name); got != want {
			t.Errorf("IsPDFName(%q) = %v, want %v", name, got, want)
		}
	}
}
