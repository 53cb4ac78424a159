package jpeg_tables

import (
	"bytes"
	"errors"
	"fmt"

	jseg "github.com/garyhouston/jpegsegs"
)

var (
	ErrNoTables     = errors.New("tiles carry no quantization or Huffman tables")
	ErrTablesDiffer = errors.New("tiles carry different tables")
)

type segment struct {
	marker jseg.Marker
	data   []byte
}

// tileTables returns the DQT and DHT segments found before the first SOS
// of one JPEG tile, in stream order.
func tileTables(tile []byte) ([]segment, error) {
	scanner, err := jseg.NewScanner(bytes.NewReader(tile))
	if err != nil {
		return nil, err
	}
	var segs []segment
	for {
		marker, data, err := scanner.Scan()
		if err != nil {
			return nil, err
		}
		if marker == jseg.SOS {
			return segs, nil
		}
		if marker == jseg.DQT || marker == jseg.DHT {
			// the scanner reuses its buffer between calls
			segs = append(segs, segment{marker: marker, data: append([]byte(nil), data...)})
		}
	}
}

func sameTables(a, b []segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].marker != b[i].marker || !bytes.Equal(a[i].data, b[i].data) {
			return false
		}
	}
	return true
}

// Shared returns an abbreviated table-specification stream (SOI, tables,
// EOI) when every tile carries identical quantization and Huffman tables.
func Shared(tiles [][]byte) ([]byte, error) {
	if len(tiles) == 0 {
		return nil, ErrNoTables
	}
	first, err := tileTables(tiles[0])
	if err != nil {
		return nil, fmt.Errorf("tile 0: %w", err)
	}
	if len(first) == 0 {
		return nil, ErrNoTables
	}
	for i := 1; i < len(tiles); i++ {
		segs, err := tileTables(tiles[i])
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		if !sameTables(first, segs) {
			return nil, fmt.Errorf("tile %d: %w", i, ErrTablesDiffer)
		}
	}

	var buf bytes.Buffer
	if err := jseg.WriteMarker(&buf, jseg.SOI); err != nil {
		return nil, err
	}
	for _, s := range first {
		if err := jseg.WriteMarker(&buf, s.marker); err != nil {
			return nil, err
		}
		if err := jseg.WriteData(&buf, s.data); err != nil {
			return nil, err
		}
	}
	if err := jseg.WriteMarker(&buf, jseg.EOI); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
