package tiff_writer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrDirectoryState = errors.New("directory written out of order")

// TIFFWriter appends image directories to a BigTIFF file. Directories are
// written one at a time and never revisited.
type TIFFWriter struct {
	sink io.WriteSeeker
	bw   *bufio.Writer
	cw   *countingWriter

	// nextIFDAt is the file offset of the pointer the next directory's
	// offset has to be patched into.
	nextIFDAt int64
	open      *DirectoryBuilder
	dirCount  int
}

type countingWriter struct {
	w      io.Writer
	offset int64
}

func (cw *countingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.w.Write(p)
	cw.offset += int64(n)
	return n, err
}

// NewTIFFWriter writes the BigTIFF header at the start of dst.
func NewTIFFWriter(dst io.WriteSeeker) (*TIFFWriter, error) {
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to start of output: %w", err)
	}
	cw := &countingWriter{
		w: dst,
	}
	tw := &TIFFWriter{
		sink:      dst,
		cw:        cw,
		bw:        bufio.NewWriterSize(cw, 8*1024*1024), // 8MB buffer
		nextIFDAt: firstIFDPointerAt,
	}

	var header [headerLen]byte
	copy(header[0:2], "II")
	binary.LittleEndian.PutUint16(header[2:4], bigTIFFVersion)
	binary.LittleEndian.PutUint16(header[4:6], bigTIFFOffsetSize)
	// reserved [6:8] and first IFD offset [8:16] stay zero until the first
	// directory closes.
	if _, err := tw.bw.Write(header[:]); err != nil {
		return nil, fmt.Errorf("error writing TIFF header: %w", err)
	}
	return tw, nil
}

func (tw *TIFFWriter) getOffset() int64 {
	return tw.cw.offset + int64(tw.bw.Buffered())
}

func (tw *TIFFWriter) write(p []byte) error {
	_, err := tw.bw.Write(p)
	return err
}

// pad aligns the next write to a word boundary.
func (tw *TIFFWriter) pad() error {
	if tw.getOffset()%2 == 0 {
		return nil
	}
	return tw.bw.WriteByte(0)
}

// patchOffset overwrites the 8-byte offset stored at position at and
// returns the sink to the end of the written data.
func (tw *TIFFWriter) patchOffset(at int64, value uint64) error {
	if err := tw.bw.Flush(); err != nil {
		return fmt.Errorf("error flushing before patch: %w", err)
	}
	if _, err := tw.sink.Seek(at, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to offset %d: %w", at, err)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	if _, err := tw.sink.Write(buf[:]); err != nil {
		return fmt.Errorf("error patching offset at %d: %w", at, err)
	}
	if _, err := tw.sink.Seek(tw.cw.offset, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking back to end: %w", err)
	}
	return nil
}

// OpenDirectory starts a new image directory. Only one directory may be
// open at a time.
func (tw *TIFFWriter) OpenDirectory() (*DirectoryBuilder, error) {
	if tw.open != nil {
		return nil, fmt.Errorf("%w: directory %d is still open", ErrDirectoryState, tw.open.index)
	}
	d := &DirectoryBuilder{
		tw:     tw,
		index:  tw.dirCount,
		fields: make(map[uint16]field),
	}
	tw.open = d
	return d, nil
}

// DirectoryCount returns the number of closed directories.
func (tw *TIFFWriter) DirectoryCount() int {
	return tw.dirCount
}

// Finish flushes everything written so far. It fails if a directory is
// still open.
func (tw *TIFFWriter) Finish() error {
	if tw.open != nil {
		return fmt.Errorf("%w: directory %d was never closed", ErrDirectoryState, tw.open.index)
	}
	if err := tw.bw.Flush(); err != nil {
		return fmt.Errorf("error flushing TIFF output: %w", err)
	}
	return nil
}
