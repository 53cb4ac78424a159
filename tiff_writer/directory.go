package tiff_writer

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

type dirState int

const (
	stateOpen dirState = iota
	stateDescribed
	stateGeometry
	stateTileData
	stateTileTables
	stateClosed
)

var stateNames = [...]string{"open", "described", "geometry", "tile data", "tile tables", "closed"}

func (s dirState) String() string {
	return stateNames[s]
}

type field struct {
	typ   FieldType
	count uint64
	data  []byte
}

// Geometry holds the tags describing the pixel layout of one directory.
// Zero-length slices are omitted.
type Geometry struct {
	ImageWidth       uint32
	ImageLength      uint32
	TileWidth        uint16
	TileLength       uint16
	ResolutionUnit   uint16
	XResolution      float64
	YResolution      float64
	Photometric      uint16
	YCbCrSubsampling []uint16
	SamplesPerPixel  uint16
	BitsPerSample    []uint16
	Compression      uint16
	ICCProfile       []byte
	JPEGTables       []byte
}

// DirectoryBuilder writes one image directory. Calls must follow
// WriteDescription, WriteGeometry, WriteTile (any number), WriteTileTables,
// Close.
type DirectoryBuilder struct {
	tw     *TIFFWriter
	index  int
	state  dirState
	fields map[uint16]field

	tileOffsets    []uint64
	tileByteCounts []uint64
}

func (d *DirectoryBuilder) Index() int {
	return d.index
}

func (d *DirectoryBuilder) advance(from []dirState, to dirState, op string) error {
	for _, s := range from {
		if d.state == s {
			d.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s in state %s", ErrDirectoryState, op, d.state)
}

func (d *DirectoryBuilder) WriteDescription(desc string) error {
	if err := d.advance([]dirState{stateOpen}, stateDescribed, "description"); err != nil {
		return err
	}
	d.setASCII(TagImageDescription, desc)
	return nil
}

func (d *DirectoryBuilder) WriteGeometry(g Geometry) error {
	if err := d.advance([]dirState{stateDescribed}, stateGeometry, "geometry"); err != nil {
		return err
	}
	xres, err := toRational(g.XResolution)
	if err != nil {
		return fmt.Errorf("x resolution: %w", err)
	}
	yres, err := toRational(g.YResolution)
	if err != nil {
		return fmt.Errorf("y resolution: %w", err)
	}

	d.setLong(TagImageWidth, g.ImageWidth)
	d.setLong(TagImageLength, g.ImageLength)
	d.setShorts(TagTileWidth, g.TileWidth)
	d.setShorts(TagTileLength, g.TileLength)
	d.setShorts(TagResolutionUnit, g.ResolutionUnit)
	d.setRational(TagXResolution, xres)
	d.setRational(TagYResolution, yres)
	d.setShorts(TagPhotometricInterpretation, g.Photometric)
	if len(g.YCbCrSubsampling) > 0 {
		d.setShorts(TagYCbCrSubSampling, g.YCbCrSubsampling...)
	}
	d.setShorts(TagSamplesPerPixel, g.SamplesPerPixel)
	d.setShorts(TagBitsPerSample, g.BitsPerSample...)
	d.setShorts(TagCompression, g.Compression)
	if len(g.ICCProfile) > 0 {
		d.setUndefined(TagICCProfile, g.ICCProfile)
	}
	if len(g.JPEGTables) > 0 {
		d.setUndefined(TagJPEGTables, g.JPEGTables)
	}
	return nil
}

// WriteTile appends one compressed tile and records where it landed.
func (d *DirectoryBuilder) WriteTile(data []byte) error {
	if err := d.advance([]dirState{stateGeometry, stateTileData}, stateTileData, "tile data"); err != nil {
		return err
	}
	offset := d.tw.getOffset()
	if err := d.tw.write(data); err != nil {
		return fmt.Errorf("error writing tile %d: %w", len(d.tileOffsets), err)
	}
	d.tileOffsets = append(d.tileOffsets, uint64(offset))
	d.tileByteCounts = append(d.tileByteCounts, uint64(len(data)))
	return nil
}

// WriteTileTables records the tile offset and byte count tags. The tile
// data of this directory is final afterwards.
func (d *DirectoryBuilder) WriteTileTables() error {
	if err := d.advance([]dirState{stateGeometry, stateTileData}, stateTileTables, "tile tables"); err != nil {
		return err
	}
	d.setLong8s(TagTileOffsets, d.tileOffsets)
	d.setLong8s(TagTileByteCounts, d.tileByteCounts)
	return nil
}

func (d *DirectoryBuilder) TileOffsets() []uint64 {
	return d.tileOffsets
}

func (d *DirectoryBuilder) TileByteCounts() []uint64 {
	return d.tileByteCounts
}

// Close writes the directory entries and links the directory into the
// file.
func (d *DirectoryBuilder) Close() error {
	if err := d.advance([]dirState{stateTileTables}, stateClosed, "close"); err != nil {
		return err
	}
	tw := d.tw

	tags := make([]int, 0, len(d.fields))
	for tag := range d.fields {
		tags = append(tags, int(tag))
	}
	sort.Ints(tags)

	// out-of-line values go before the IFD
	valueOffsets := make(map[uint16]uint64)
	for _, t := range tags {
		tag := uint16(t)
		f := d.fields[tag]
		if len(f.data) <= inlineValueLen {
			continue
		}
		if err := tw.pad(); err != nil {
			return fmt.Errorf("error padding directory %d: %w", d.index, err)
		}
		valueOffsets[tag] = uint64(tw.getOffset())
		if err := tw.write(f.data); err != nil {
			return fmt.Errorf("error writing value of tag %d: %w", tag, err)
		}
	}

	if err := tw.pad(); err != nil {
		return fmt.Errorf("error padding directory %d: %w", d.index, err)
	}
	ifdOffset := tw.getOffset()

	buf := make([]byte, 8+len(tags)*ifdEntryLen+8)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(tags)))
	for i, t := range tags {
		tag := uint16(t)
		f := d.fields[tag]
		entry := buf[8+i*ifdEntryLen : 8+(i+1)*ifdEntryLen]
		binary.LittleEndian.PutUint16(entry[0:2], tag)
		binary.LittleEndian.PutUint16(entry[2:4], uint16(f.typ))
		binary.LittleEndian.PutUint64(entry[4:12], f.count)
		if off, ok := valueOffsets[tag]; ok {
			binary.LittleEndian.PutUint64(entry[12:20], off)
		} else {
			copy(entry[12:20], f.data)
		}
	}
	// next IFD offset stays zero until another directory is linked
	if err := tw.write(buf); err != nil {
		return fmt.Errorf("error writing directory %d: %w", d.index, err)
	}

	if err := tw.patchOffset(tw.nextIFDAt, uint64(ifdOffset)); err != nil {
		return err
	}
	tw.nextIFDAt = ifdOffset + int64(len(buf)) - 8
	tw.open = nil
	tw.dirCount++
	return nil
}

func (d *DirectoryBuilder) set(tag uint16, typ FieldType, count int, data []byte) {
	d.fields[tag] = field{typ: typ, count: uint64(count), data: data}
}

func (d *DirectoryBuilder) setASCII(tag uint16, s string) {
	data := append([]byte(s), 0)
	d.set(tag, TypeASCII, len(data), data)
}

func (d *DirectoryBuilder) setShorts(tag uint16, vals ...uint16) {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	d.set(tag, TypeShort, len(vals), data)
}

func (d *DirectoryBuilder) setLong(tag uint16, v uint32) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	d.set(tag, TypeLong, 1, data)
}

func (d *DirectoryBuilder) setLong8s(tag uint16, vals []uint64) {
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(data[8*i:], v)
	}
	d.set(tag, TypeLong8, len(vals), data)
}

func (d *DirectoryBuilder) setRational(tag uint16, r [2]uint32) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], r[0])
	binary.LittleEndian.PutUint32(data[4:8], r[1])
	d.set(tag, TypeRational, 1, data)
}

func (d *DirectoryBuilder) setUndefined(tag uint16, b []byte) {
	d.set(tag, TypeUndefined, len(b), b)
}

// toRational approximates v as numerator/denominator, keeping as many
// decimal places as fit in 32 bits.
func toRational(v float64) ([2]uint32, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > math.MaxUint32 {
		return [2]uint32{}, fmt.Errorf("cannot represent %v as a rational", v)
	}
	num, den := uint64(math.Round(v)), uint64(1)
	for d := uint64(10); d <= 1_000_000_000; d *= 10 {
		n := math.Round(v * float64(d))
		if n > math.MaxUint32 {
			break
		}
		num, den = uint64(n), d
		if math.Abs(float64(num)/float64(den)-v) <= 1e-12*math.Max(v, 1) {
			break
		}
	}
	g := gcd(num, den)
	if g > 1 {
		num, den = num/g, den/g
	}
	return [2]uint32{uint32(num), uint32(den)}, nil
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
