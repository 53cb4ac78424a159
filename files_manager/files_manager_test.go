package files_manager

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

func dicomBytes(payload string) []byte {
	data := make([]byte, 128, 160)
	data = append(data, "DICM"...)
	return append(data, payload...)
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readAll(t *testing.T, set *InputSet) []string {
	t.Helper()
	var out []string
	for _, src := range set.Sources() {
		data, err := io.ReadAll(src)
		if err != nil {
			t.Fatalf("read source: %v", err)
		}
		out = append(out, string(data[132:]))
	}
	return out
}

func TestGetDICOMPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.dcm"), dicomBytes("a"))
	writeFile(t, filepath.Join(dir, "b"), dicomBytes("b"))
	writeFile(t, filepath.Join(dir, "._a.dcm"), dicomBytes("fork"))
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("not dicom"))
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	paths, err := GetDICOMPaths(dir)
	if err != nil {
		t.Fatalf("GetDICOMPaths failed: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "a.dcm" || filepath.Base(paths[1]) != "b" {
		t.Errorf("GetDICOMPaths = %v", paths)
	}
}

func TestResolveInputDirectoryAndFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1.dcm"), dicomBytes("one"))
	writeFile(t, filepath.Join(dir, "2.dcm"), dicomBytes("two"))

	for _, input := range []string{dir, filepath.Join(dir, "2.dcm")} {
		set, err := ResolveInput(input)
		if err != nil {
			t.Fatalf("ResolveInput(%s) failed: %v", input, err)
		}
		got := readAll(t, set)
		if len(got) != 2 || got[0] != "one" || got[1] != "two" {
			t.Errorf("ResolveInput(%s) payloads = %v", input, got)
		}
		if err := set.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}
}

func TestResolveInputZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "slide.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	entries := []struct {
		name string
		data []byte
	}{
		{"levels/", nil},
		{"levels/0.dcm", dicomBytes("level0")},
		{"levels/notes.txt", []byte("ignore me")},
		{"levels/1.dcm", dicomBytes("level1")},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	set, err := ResolveInput(archivePath)
	if err != nil {
		t.Fatalf("ResolveInput failed: %v", err)
	}
	got := readAll(t, set)
	if len(got) != 2 || got[0] != "level0" || got[1] != "level1" {
		t.Errorf("zip payloads = %v", got)
	}
	tempDir := set.tempDir
	if err := set.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Errorf("temporary directory %s not removed", tempDir)
	}
}

func TestResolveInputMissing(t *testing.T) {
	if _, err := ResolveInput(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing input")
	}
}
