package attributes

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"dicom2tiff/contracts"
	"dicom2tiff/format_mapper"
)

// Extract reads everything needed to write one pyramid level from a fully
// decoded document. Sparse tiling is rejected before anything else is read.
func Extract(ds *contracts.Dataset) (*contracts.LevelAttributes, error) {
	dimOrg, err := optionalString(ds, contracts.DimensionOrganizationType)
	if err != nil {
		return nil, err
	}
	if err := format_mapper.CheckDimensionOrganization(dimOrg); err != nil {
		return nil, err
	}

	attrs := &contracts.LevelAttributes{DimensionOrganizationType: dimOrg}

	height, err := ds.Uint(contracts.TotalPixelMatrixRows, math.MaxUint32)
	if err != nil {
		return nil, err
	}
	width, err := ds.Uint(contracts.TotalPixelMatrixColumns, math.MaxUint32)
	if err != nil {
		return nil, err
	}
	tileHeight, err := ds.Uint(contracts.Rows, math.MaxUint16)
	if err != nil {
		return nil, err
	}
	tileWidth, err := ds.Uint(contracts.Columns, math.MaxUint16)
	if err != nil {
		return nil, err
	}
	attrs.ImageHeight, attrs.ImageWidth = uint32(height), uint32(width)
	attrs.TileHeight, attrs.TileWidth = uint16(tileHeight), uint16(tileWidth)

	if attrs.PhotometricInterpretation, err = ds.String(contracts.PhotometricInterpretation); err != nil {
		return nil, err
	}
	samples, err := ds.Uint(contracts.SamplesPerPixel, math.MaxUint16)
	if err != nil {
		return nil, err
	}
	bits, err := ds.Uint(contracts.BitsStored, math.MaxUint16)
	if err != nil {
		return nil, err
	}
	attrs.SamplesPerPixel, attrs.BitsStored = uint16(samples), uint16(bits)

	if attrs.PixelSpacing, err = PixelSpacing(ds); err != nil {
		return nil, err
	}
	if attrs.LossyCompressionMethod, err = ds.String(contracts.LossyImageCompressionMethod); err != nil {
		return nil, err
	}
	if attrs.ICCProfile, err = ICCProfile(ds); err != nil {
		return nil, err
	}

	fragments, err := ds.Fragments(contracts.PixelData)
	if err != nil {
		return nil, err
	}
	attrs.Fragments = make([]contracts.TileFragment, len(fragments))
	for i, data := range fragments {
		attrs.Fragments[i] = contracts.TileFragment{Index: i, Data: data}
	}
	return attrs, nil
}

// PixelSpacing reads the (row, column) spacing from the first pixel
// measures item of the first shared functional group.
func PixelSpacing(ds *contracts.Dataset) ([2]float64, error) {
	var spacing [2]float64
	group, err := ds.FirstItem(contracts.SharedFunctionalGroupsSequence)
	if err != nil {
		return spacing, err
	}
	measures, err := group.FirstItem(contracts.PixelMeasuresSequence)
	if err != nil {
		return spacing, err
	}

	name := contracts.PixelSpacing.String()
	v, ok := measures.Lookup(contracts.PixelSpacing)
	if !ok {
		return spacing, contracts.MissingAttribute(name)
	}
	var vals []float64
	switch v.Kind {
	case contracts.KindStrings:
		for _, s := range v.Strings {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return spacing, contracts.MalformedAttribute(name, fmt.Sprintf("cannot parse %q as a number", s))
			}
			vals = append(vals, f)
		}
	case contracts.KindFloats:
		vals = v.Floats
	default:
		return spacing, contracts.MalformedAttribute(name, fmt.Sprintf("expected numbers, got %s", v.Kind))
	}
	if len(vals) != 2 {
		return spacing, contracts.MalformedAttribute(name, fmt.Sprintf("expected 2 values, got %d", len(vals)))
	}
	for i, f := range vals {
		if !(f > 0) || math.IsInf(f, 0) {
			return spacing, contracts.MalformedAttribute(name, fmt.Sprintf("value %v is not a positive spacing", f))
		}
		spacing[i] = f
	}
	return spacing, nil
}

// ICCProfile returns the profile of the first optical path that carries
// one. Documents without optical paths or profiles yield nil.
func ICCProfile(ds *contracts.Dataset) ([]byte, error) {
	paths, err := ds.Items(contracts.OpticalPathSequence)
	if errors.Is(err, contracts.ErrMissingAttribute) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if !path.Has(contracts.ICCProfile) {
			continue
		}
		return path.Bytes(contracts.ICCProfile)
	}
	return nil, nil
}

func optionalString(ds *contracts.Dataset, a contracts.Attribute) (string, error) {
	vals, err := ds.Strings(a)
	if errors.Is(err, contracts.ErrMissingAttribute) {
		return "", nil
	}
	if err != nil || len(vals) == 0 {
		return "", err
	}
	return strings.TrimSpace(vals[0]), nil
}
