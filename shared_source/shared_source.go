package shared_source

import (
	"errors"
	"io"
)

var ErrBorrowed = errors.New("shared source is borrowed by another handle")

type cursor struct {
	rs       io.ReadSeeker
	borrower *SharedSource
}

// SharedSource is a handle over one input stream. Clones share the stream
// and its read position; they are not safe for concurrent use.
type SharedSource struct {
	c *cursor
}

func New(rs io.ReadSeeker) *SharedSource {
	return &SharedSource{c: &cursor{rs: rs}}
}

// Clone returns another handle over the same stream and position.
func (s *SharedSource) Clone() *SharedSource {
	return &SharedSource{c: s.c}
}

// Borrow marks s as the only handle allowed to drive the stream until
// Release is called. Handles that never borrow are unrestricted while no
// borrow is held.
func (s *SharedSource) Borrow() error {
	if s.c.borrower != nil && s.c.borrower != s {
		return ErrBorrowed
	}
	s.c.borrower = s
	return nil
}

func (s *SharedSource) Release() {
	if s.c.borrower == s {
		s.c.borrower = nil
	}
}

func (s *SharedSource) check() error {
	if s.c.borrower != nil && s.c.borrower != s {
		return ErrBorrowed
	}
	return nil
}

func (s *SharedSource) Read(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.c.rs.Read(p)
}

func (s *SharedSource) Seek(offset int64, whence int) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.c.rs.Seek(offset, whence)
}

// Rewind moves the shared position back to the absolute start of the
// stream.
func (s *SharedSource) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}
