package files_manager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"dicom2tiff/utils"
)

// InputSet is the list of DICOM streams found for one input path. Close
// releases the files and removes anything extracted to a temporary
// directory.
type InputSet struct {
	Files   []*os.File
	tempDir string
}

func (s *InputSet) Sources() []io.ReadSeeker {
	out := make([]io.ReadSeeker, len(s.Files))
	for i, f := range s.Files {
		out[i] = f
	}
	return out
}

func (s *InputSet) Close() error {
	var errs []error
	for _, f := range s.Files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.tempDir != "" {
		if err := os.RemoveAll(s.tempDir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func skipName(name string) bool {
	return strings.HasPrefix(name, "._")
}

// GetDICOMPaths lists the files in dir that carry the DICOM marker, in
// directory order.
func GetDICOMPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || skipName(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if utils.IsDICOMFile(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// ResolveInput opens the DICOM files for path: the entries of a zip
// archive, the files of a directory, or for a single file the files of its
// parent directory, since the other pyramid levels live next to it.
func ResolveInput(path string) (*InputSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() && utils.IsZipFile(path) {
		return extractZip(path)
	}

	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	paths, err := GetDICOMPaths(dir)
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", dir, err)
	}
	set := &InputSet{}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.Files = append(set.Files, f)
	}
	return set, nil
}

// extractZip copies every DICOM entry of the archive to a temporary file.
func extractZip(path string) (*InputSet, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("error opening archive %s: %w", path, err)
	}
	defer archive.Close()

	tempDir, err := os.MkdirTemp("", "dicom2tiff-")
	if err != nil {
		return nil, err
	}
	set := &InputSet{tempDir: tempDir}

	for i, entry := range archive.File {
		if entry.FileInfo().IsDir() || skipName(filepath.Base(entry.Name)) {
			continue
		}
		f, err := extractEntry(entry, tempDir, i)
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("error extracting %s: %w", entry.Name, err)
		}
		ok, err := utils.IsDICOMData(f)
		if err != nil || !ok {
			f.Close()
			os.Remove(f.Name())
			if err != nil {
				set.Close()
				return nil, err
			}
			continue
		}
		set.Files = append(set.Files, f)
	}
	return set, nil
}

func extractEntry(entry *zip.File, dir string, index int) (*os.File, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	f, err := os.CreateTemp(dir, fmt.Sprintf("entry-%d-*.dcm", index))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
