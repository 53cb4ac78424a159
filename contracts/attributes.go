package contracts

// Attributes read from whole-slide source documents.
var (
	ImageType                      = Attribute{Tag{0x0008, 0x0008}, "ImageType"}
	SamplesPerPixel                = Attribute{Tag{0x0028, 0x0002}, "SamplesPerPixel"}
	PhotometricInterpretation      = Attribute{Tag{0x0028, 0x0004}, "PhotometricInterpretation"}
	Rows                           = Attribute{Tag{0x0028, 0x0010}, "Rows"}
	Columns                        = Attribute{Tag{0x0028, 0x0011}, "Columns"}
	PixelSpacing                   = Attribute{Tag{0x0028, 0x0030}, "PixelSpacing"}
	BitsStored                     = Attribute{Tag{0x0028, 0x0101}, "BitsStored"}
	ICCProfile                     = Attribute{Tag{0x0028, 0x2000}, "ICCProfile"}
	LossyImageCompressionMethod    = Attribute{Tag{0x0028, 0x2114}, "LossyImageCompressionMethod"}
	PixelMeasuresSequence          = Attribute{Tag{0x0028, 0x9110}, "PixelMeasuresSequence"}
	DimensionOrganizationType      = Attribute{Tag{0x0020, 0x9311}, "DimensionOrganizationType"}
	TotalPixelMatrixColumns        = Attribute{Tag{0x0048, 0x0006}, "TotalPixelMatrixColumns"}
	TotalPixelMatrixRows           = Attribute{Tag{0x0048, 0x0007}, "TotalPixelMatrixRows"}
	OpticalPathSequence            = Attribute{Tag{0x0048, 0x0105}, "OpticalPathSequence"}
	SharedFunctionalGroupsSequence = Attribute{Tag{0x5200, 0x9229}, "SharedFunctionalGroupsSequence"}
	PixelData                      = Attribute{Tag{0x7FE0, 0x0010}, "PixelData"}
)
