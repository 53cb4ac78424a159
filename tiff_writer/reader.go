package tiff_writer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"

	"github.com/google/tiff"
	"github.com/google/tiff/bigtiff"
)

var ErrNotBigTIFF = errors.New("not a little-endian BigTIFF file")

// maxDirectories bounds the IFD chain walk against cyclic files.
const maxDirectories = 4096

// FieldInfo is one parsed IFD entry with its value bytes trimmed to
// Count values.
type FieldInfo struct {
	Tag   uint16
	Type  FieldType
	Count uint64
	Data  []byte

	ft tiff.FieldType
}

func newFieldInfo(f tiff.Field) FieldInfo {
	ft := f.Type()
	data := f.Value().Bytes()
	if n := ft.Size() * f.Count(); uint64(len(data)) > n {
		data = data[:n]
	}
	return FieldInfo{
		Tag:   f.Tag().ID(),
		Type:  FieldType(ft.ID()),
		Count: f.Count(),
		Data:  data,
		ft:    ft,
	}
}

func (f FieldInfo) values() []reflect.Value {
	if f.ft == nil || f.ft.Size() == 0 {
		return nil
	}
	size := int(f.ft.Size())
	valuer := f.ft.Valuer()
	out := make([]reflect.Value, 0, len(f.Data)/size)
	for i := 0; i+size <= len(f.Data); i += size {
		out = append(out, valuer(f.Data[i:i+size], binary.LittleEndian))
	}
	return out
}

// Uints decodes BYTE, SHORT, LONG and LONG8 values.
func (f FieldInfo) Uints() []uint64 {
	vals := f.values()
	out := make([]uint64, 0, len(vals))
	for _, v := range vals {
		switch v.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, v.Uint())
		default:
			return nil
		}
	}
	return out
}

// Uint returns the first integer value, or 0.
func (f FieldInfo) Uint() uint64 {
	vals := f.Uints()
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}

// ASCII returns the string value without its NUL terminator.
func (f FieldInfo) ASCII() string {
	if f.Type != TypeASCII || f.ft == nil || len(f.Data) == 0 {
		return ""
	}
	return f.ft.Valuer()(f.Data, binary.LittleEndian).String()
}

// Rational returns the first RATIONAL value as a float. A zero
// denominator reads as 0.
func (f FieldInfo) Rational() float64 {
	if f.Type != TypeRational {
		return math.NaN()
	}
	vals := f.values()
	if len(vals) == 0 {
		return math.NaN()
	}
	r, ok := vals[0].Interface().(*big.Rat)
	if !ok {
		return math.NaN()
	}
	v, _ := r.Float64()
	return v
}

type DirectoryInfo struct {
	Offset uint64
	Fields map[uint16]FieldInfo
}

func (d DirectoryInfo) Field(tag uint16) (FieldInfo, bool) {
	f, ok := d.Fields[tag]
	return f, ok
}

// ReadDirectories parses the IFD chain of a little-endian BigTIFF file such
// as the ones TIFFWriter produces.
func ReadDirectories(r tiff.ReadAtReadSeeker) ([]DirectoryInfo, error) {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	if string(magic[:]) != bigtiff.MagicLitEndian {
		return nil, ErrNotBigTIFF
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("error getting file size: %w", err)
	}
	if size < headerLen {
		return nil, fmt.Errorf("file of %d bytes is shorter than the header", size)
	}
	offsets, err := checkChain(r, size)
	if err != nil || len(offsets) == 0 {
		return nil, err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error rewinding: %w", err)
	}
	parsed, err := tiff.Parse(r, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("error parsing BigTIFF: %w", err)
	}

	ifds := parsed.IFDs()
	if len(ifds) != len(offsets) {
		return nil, fmt.Errorf("parsed %d directories, expected %d", len(ifds), len(offsets))
	}
	dirs := make([]DirectoryInfo, len(ifds))
	for i, ifd := range ifds {
		fields := ifd.Fields()
		dir := DirectoryInfo{Offset: offsets[i], Fields: make(map[uint16]FieldInfo, len(fields))}
		for _, f := range fields {
			info := newFieldInfo(f)
			dir.Fields[info.Tag] = info
		}
		dirs[i] = dir
	}
	return dirs, nil
}

type rawEntry struct {
	Tag   uint16
	Type  uint16
	Count uint64
	Value [8]byte
}

// checkChain walks the IFD chain without reading values and returns the
// directory offsets. The parser follows next pointers and sizes value
// buffers from entry counts as found, so loops, truncated directories and
// counts larger than the file are rejected here first.
func checkChain(r tiff.ReadAtReadSeeker, size int64) ([]uint64, error) {
	br := tiff.NewBReader(r, binary.LittleEndian)
	var next uint64
	if err := br.BReadSection(&next, firstIFDPointerAt, 8); err != nil {
		return nil, fmt.Errorf("error reading first directory offset: %w", err)
	}

	var offsets []uint64
	seen := make(map[uint64]bool)
	for next != 0 {
		if seen[next] {
			return nil, fmt.Errorf("directory chain loops back to offset %d", next)
		}
		if len(offsets) >= maxDirectories {
			return nil, fmt.Errorf("more than %d directories", maxDirectories)
		}
		if next < headerLen || next > uint64(size)-16 {
			return nil, fmt.Errorf("directory offset %d outside the file", next)
		}
		seen[next] = true
		offsets = append(offsets, next)

		var count uint64
		if err := br.BReadSection(&count, int64(next), 8); err != nil {
			return nil, fmt.Errorf("directory at %d: %w", next, err)
		}
		if count > (uint64(size)-next-16)/ifdEntryLen {
			return nil, fmt.Errorf("directory at %d: %d entries do not fit in the file", next, count)
		}
		if count > 0 {
			entries := make([]rawEntry, count)
			if err := br.BReadSection(&entries, int64(next)+8, int64(count)*ifdEntryLen); err != nil {
				return nil, fmt.Errorf("directory at %d: %w", next, err)
			}
			for _, e := range entries {
				typeSize := tiff.DefaultFieldTypeSpace.GetFieldType(e.Type).Size()
				if typeSize == 0 || e.Count > uint64(size)/typeSize {
					return nil, fmt.Errorf("directory at %d: tag %d claims %d values, more than the file holds", next, e.Tag, e.Count)
				}
			}
		}
		at := int64(next) + 8 + int64(count)*ifdEntryLen
		if err := br.BReadSection(&next, at, 8); err != nil {
			return nil, fmt.Errorf("directory at %d: %w", offsets[len(offsets)-1], err)
		}
	}
	return offsets, nil
}
