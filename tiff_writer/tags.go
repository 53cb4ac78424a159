package tiff_writer

// BigTIFF layout (little-endian only):
//
//	header: "II", version 43, offset size 8, reserved 0, first IFD offset (8)
//	IFD:    entry count (8), entries of 20 bytes, next IFD offset (8)
//	entry:  tag (2), type (2), count (8), value or offset (8)
const (
	bigTIFFVersion    = 43
	bigTIFFOffsetSize = 8
	headerLen         = 16
	firstIFDPointerAt = 8
	ifdEntryLen       = 20
	inlineValueLen    = 8
)

type FieldType uint16

// Field data types.
const (
	TypeByte      FieldType = 1
	TypeASCII     FieldType = 2
	TypeShort     FieldType = 3
	TypeLong      FieldType = 4
	TypeRational  FieldType = 5
	TypeUndefined FieldType = 7
	TypeLong8     FieldType = 16
)

// Tags.
const (
	TagImageWidth                = 256
	TagImageLength               = 257
	TagBitsPerSample             = 258
	TagCompression               = 259
	TagPhotometricInterpretation = 262
	TagImageDescription          = 270
	TagSamplesPerPixel           = 277
	TagXResolution               = 282
	TagYResolution               = 283
	TagResolutionUnit            = 296
	TagTileWidth                 = 322
	TagTileLength                = 323
	TagTileOffsets               = 324
	TagTileByteCounts            = 325
	TagJPEGTables                = 347
	TagYCbCrSubSampling          = 530
	TagICCProfile                = 34675
)

// Photometric interpretations.
const (
	PhotometricWhiteIsZero uint16 = 0
	PhotometricBlackIsZero uint16 = 1
	PhotometricRGB         uint16 = 2
	PhotometricYCbCr       uint16 = 6
)

// Compression schemes. The JPEG 2000 codes are the Aperio private values
// understood by whole-slide viewers.
const (
	CompressionJPEG        uint16 = 7
	CompressionJP2000YCbCr uint16 = 33003
	CompressionJP2000RGB   uint16 = 33005
)

const ResolutionUnitCentimeter uint16 = 3
