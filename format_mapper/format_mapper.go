package format_mapper

import (
	"fmt"
	"strconv"

	"dicom2tiff/contracts"
	"dicom2tiff/tiff_writer"
)

const (
	sparseTiling = "TILED_SPARSE"
	// vendorToken opens the image description; viewers look for it before
	// parsing the MPP field.
	vendorToken = "Aperio"

	jpegBaseline = "ISO_10918_1"
	jpeg2000     = "ISO_15444_1"
)

// Photometric maps a source photometric interpretation to the TIFF code and
// the YCbCr subsampling to record, if any.
func Photometric(label string) (uint16, []uint16, error) {
	switch label {
	case "MONOCHROME1":
		return tiff_writer.PhotometricBlackIsZero, nil, nil
	case "MONOCHROME2":
		return tiff_writer.PhotometricWhiteIsZero, nil, nil
	case "RGB":
		return tiff_writer.PhotometricRGB, nil, nil
	case "YBR_FULL":
		return tiff_writer.PhotometricYCbCr, []uint16{1, 1}, nil
	case "YBR_FULL_422":
		return tiff_writer.PhotometricYCbCr, []uint16{2, 1}, nil
	case "YBR_ICT":
		return tiff_writer.PhotometricYCbCr, nil, nil
	default:
		return 0, nil, contracts.UnsupportedFormat(
			contracts.PhotometricInterpretation.String(), label, "unsupported photometric interpretation")
	}
}

// Compression maps the lossy compression method of the source to a TIFF
// compression code. JPEG 2000 needs the photometric code to pick between the
// RGB and YCbCr variants.
func Compression(method string, photometric uint16) (uint16, error) {
	switch {
	case method == jpegBaseline:
		return tiff_writer.CompressionJPEG, nil
	case method == jpeg2000 && photometric == tiff_writer.PhotometricRGB:
		return tiff_writer.CompressionJP2000RGB, nil
	case method == jpeg2000 && photometric == tiff_writer.PhotometricYCbCr:
		return tiff_writer.CompressionJP2000YCbCr, nil
	default:
		return 0, contracts.UnsupportedFormat(
			contracts.LossyImageCompressionMethod.String(), method,
			fmt.Sprintf("unsupported lossy compression method for photometric %d", photometric))
	}
}

func CheckDimensionOrganization(label string) error {
	if label == sparseTiling {
		return contracts.UnsupportedFormat(
			contracts.DimensionOrganizationType.String(), label, "sparsely tiled images are not supported")
	}
	return nil
}

type Resolution struct {
	MPPX        float64
	MPPY        float64
	XResolution float64
	YResolution float64
}

// ResolutionFromSpacing converts pixel spacing in millimeters to micrometers
// per pixel and to pixels per centimeter.
func ResolutionFromSpacing(spacing [2]float64) Resolution {
	mppX := spacing[0] * 1000
	mppY := spacing[1] * 1000
	return Resolution{
		MPPX:        mppX,
		MPPY:        mppY,
		XResolution: 10000 / mppX,
		YResolution: 10000 / mppY,
	}
}

func Description(mpp float64) string {
	return vendorToken + "\n|MPP=" + strconv.FormatFloat(mpp, 'f', -1, 64)
}

// MapLevel translates extracted attributes into the output vocabulary.
func MapLevel(attrs *contracts.LevelAttributes) (*contracts.Level, error) {
	if err := CheckDimensionOrganization(attrs.DimensionOrganizationType); err != nil {
		return nil, err
	}
	photometric, subsampling, err := Photometric(attrs.PhotometricInterpretation)
	if err != nil {
		return nil, err
	}
	compression, err := Compression(attrs.LossyCompressionMethod, photometric)
	if err != nil {
		return nil, err
	}

	bps := make([]uint16, attrs.SamplesPerPixel)
	for i := range bps {
		bps[i] = attrs.BitsStored
	}
	res := ResolutionFromSpacing(attrs.PixelSpacing)

	return &contracts.Level{
		LevelAttributes:  *attrs,
		Photometric:      photometric,
		YCbCrSubsampling: subsampling,
		BitsPerSample:    bps,
		Compression:      compression,
		ResolutionUnit:   tiff_writer.ResolutionUnitCentimeter,
		XResolution:      res.XResolution,
		YResolution:      res.YResolution,
		MPPX:             res.MPPX,
		MPPY:             res.MPPY,
		Description:      Description(res.MPPX),
	}, nil
}
