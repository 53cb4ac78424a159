package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	dicomPreambleLen = 128
	dicomMagic       = "DICM"
	zipMagic         = "PK\x03\x04"
)

// IsDICOMData checks for the DICM marker after the 128-byte preamble and
// rewinds r to its start.
func IsDICOMData(r io.ReadSeeker) (bool, error) {
	if _, err := r.Seek(dicomPreambleLen, io.SeekStart); err != nil {
		return false, fmt.Errorf("error seeking past preamble: %w", err)
	}
	var magic [4]byte
	_, err := io.ReadFull(r, magic[:])
	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return false, fmt.Errorf("error rewinding: %w", serr)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error reading DICOM marker: %w", err)
	}
	return string(magic[:]) == dicomMagic, nil
}

func IsDICOMFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	ok, err := IsDICOMData(f)
	return err == nil && ok
}

func IsZipFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	var sig [4]byte
	if _, err := io.ReadFull(f, sig[:]); err != nil {
		return false
	}
	return bytes.Equal(sig[:], []byte(zipMagic))
}
