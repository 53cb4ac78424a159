package converter

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"dicom2tiff/attributes"
	"dicom2tiff/contracts"
	"dicom2tiff/dicom_reader"
	"dicom2tiff/format_mapper"
	"dicom2tiff/jpeg_tables"
	"dicom2tiff/logging"
	"dicom2tiff/pyramid"
	"dicom2tiff/shared_source"
	"dicom2tiff/tiff_writer"
)

type Options struct {
	// Decoder defaults to the DICOM reader.
	Decoder contracts.Decoder
	Logger  logrus.FieldLogger
	// JPEGTables enables the shared JPEGTables tag for JPEG levels.
	JPEGTables bool
}

// ConvertSources writes the pyramid levels found among sources into output
// as one BigTIFF, highest resolution first. On error the output is left in
// an undefined state.
func ConvertSources(sources []io.ReadSeeker, output io.WriteSeeker, opts Options) error {
	dec := opts.Decoder
	if dec == nil {
		dec = dicom_reader.New()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	shared := make([]*shared_source.SharedSource, len(sources))
	for i, src := range sources {
		shared[i] = shared_source.New(src)
	}
	levels, err := pyramid.Select(shared, dec, log)
	if err != nil {
		return err
	}
	log.WithField("levels", len(levels)).Info("found pyramid levels")

	tw, err := tiff_writer.NewTIFFWriter(output)
	if err != nil {
		return err
	}
	for i, src := range levels {
		level, err := readLevel(src, dec)
		if err != nil {
			return fmt.Errorf("level %d: %w", i, err)
		}
		if opts.JPEGTables && level.Compression == tiff_writer.CompressionJPEG {
			level.JPEGTables = sharedTables(level, log.WithField("level", i))
		}
		dir, err := writeLevel(tw, level)
		if err != nil {
			return fmt.Errorf("level %d: %w", i, err)
		}
		log.WithFields(logrus.Fields{
			"level":       dir.Index(),
			"width":       level.ImageWidth,
			"height":      level.ImageHeight,
			"tiles":       len(dir.TileOffsets()),
			"tile_bytes":  sum(dir.TileByteCounts()),
			"compression": level.Compression,
		}).Info("wrote pyramid level")
	}
	return tw.Finish()
}

func readLevel(src *shared_source.SharedSource, dec contracts.Decoder) (*contracts.Level, error) {
	if err := src.Borrow(); err != nil {
		return nil, err
	}
	ds, err := dec.Decode(src)
	src.Release()
	if err != nil {
		return nil, fmt.Errorf("error decoding: %w", err)
	}
	attrs, err := attributes.Extract(ds)
	if err != nil {
		return nil, err
	}
	return format_mapper.MapLevel(attrs)
}

func sharedTables(level *contracts.Level, log logrus.FieldLogger) []byte {
	tiles := make([][]byte, len(level.Fragments))
	for i, f := range level.Fragments {
		tiles[i] = f.Data
	}
	tables, err := jpeg_tables.Shared(tiles)
	if err != nil {
		if errors.Is(err, jpeg_tables.ErrNoTables) {
			log.Debug("tiles carry no JPEG tables")
		} else {
			log.WithError(err).Warn("not writing shared JPEG tables")
		}
		return nil
	}
	return tables
}

// writeLevel appends one image directory. Tile offsets are only known once
// the tiles are written, so the tile tables come last.
func writeLevel(tw *tiff_writer.TIFFWriter, level *contracts.Level) (*tiff_writer.DirectoryBuilder, error) {
	dir, err := tw.OpenDirectory()
	if err != nil {
		return nil, err
	}
	if err := dir.WriteDescription(level.Description); err != nil {
		return nil, err
	}
	err = dir.WriteGeometry(tiff_writer.Geometry{
		ImageWidth:       level.ImageWidth,
		ImageLength:      level.ImageHeight,
		TileWidth:        level.TileWidth,
		TileLength:       level.TileHeight,
		ResolutionUnit:   level.ResolutionUnit,
		XResolution:      level.XResolution,
		YResolution:      level.YResolution,
		Photometric:      level.Photometric,
		YCbCrSubsampling: level.YCbCrSubsampling,
		SamplesPerPixel:  level.SamplesPerPixel,
		BitsPerSample:    level.BitsPerSample,
		Compression:      level.Compression,
		ICCProfile:       level.ICCProfile,
		JPEGTables:       level.JPEGTables,
	})
	if err != nil {
		return nil, err
	}
	for _, frag := range level.Fragments {
		if err := dir.WriteTile(frag.Data); err != nil {
			return nil, err
		}
	}
	if err := dir.WriteTileTables(); err != nil {
		return nil, err
	}
	return dir, dir.Close()
}

func sum(vals []uint64) uint64 {
	var total uint64
	for _, v := range vals {
		total += v
	}
	return total
}
