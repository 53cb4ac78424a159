package contracts

// TileFragment is one compressed tile, copied verbatim into the output.
type TileFragment struct {
	Index int
	Data  []byte
}

// LevelAttributes holds what a source document says about one pyramid
// level, before any mapping into the output vocabulary.
type LevelAttributes struct {
	ImageWidth  uint32
	ImageHeight uint32
	TileWidth   uint16
	TileHeight  uint16

	PhotometricInterpretation string
	SamplesPerPixel           uint16
	BitsStored                uint16
	// PixelSpacing is (row, column) in millimeters per pixel.
	PixelSpacing              [2]float64
	ICCProfile                []byte
	LossyCompressionMethod    string
	DimensionOrganizationType string

	Fragments []TileFragment
}

// Level is one pyramid level ready to be written as an image directory.
type Level struct {
	LevelAttributes

	Photometric      uint16
	YCbCrSubsampling []uint16
	BitsPerSample    []uint16
	Compression      uint16

	ResolutionUnit uint16
	XResolution    float64
	YResolution    float64
	// MPP is micrometers per pixel along each axis.
	MPPX float64
	MPPY float64

	Description string
	// JPEGTables is an abbreviated table-specification stream shared by all
	// tiles, nil when not used.
	JPEGTables []byte
}
