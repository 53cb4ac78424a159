package tests

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/suyashkumar/dicom/pkg/uid"

	"dicom2tiff/config"
	"dicom2tiff/contracts"
	"dicom2tiff/converter"
	"dicom2tiff/logging"
	"dicom2tiff/tiff_writer"
)

func element(t *testing.T, tg tag.Tag, data interface{}) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(tg, data)
	if err != nil {
		t.Fatalf("NewElement(%v) failed: %v", tg, err)
	}
	return el
}

// writeDICOMLevel stores one pyramid level as a Part 10 file with the tiles
// as encapsulated fragments.
func writeDICOMLevel(t *testing.T, path string, columns int, tiles ...[]byte) {
	t.Helper()
	frames := make([]*frame.Frame, len(tiles))
	for i, tile := range tiles {
		frames[i] = &frame.Frame{Encapsulated: true, EncapsulatedData: frame.EncapsulatedFrame{Data: tile}}
	}
	pixels := element(t, tag.PixelData, dicom.PixelDataInfo{IsEncapsulated: true, Frames: frames})
	pixels.ValueLength = tag.VLUndefinedLength

	measures := []*dicom.Element{element(t, tag.PixelSpacing, []string{"0.00025", "0.00025"})}
	group := []*dicom.Element{element(t, tag.PixelMeasuresSequence, [][]*dicom.Element{measures})}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		element(t, tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.77.1.6"}),
		element(t, tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4.5.6.7"}),
		element(t, tag.TransferSyntaxUID, []string{uid.ExplicitVRLittleEndian}),
		element(t, tag.ImageType, []string{"DERIVED", "PRIMARY", "VOLUME", "RESAMPLED"}),
		element(t, tag.SamplesPerPixel, []int{3}),
		element(t, tag.PhotometricInterpretation, []string{"YBR_FULL_422"}),
		element(t, tag.Rows, []int{256}),
		element(t, tag.Columns, []int{256}),
		element(t, tag.BitsStored, []int{8}),
		element(t, tag.LossyImageCompressionMethod, []string{"ISO_10918_1"}),
		element(t, tag.TotalPixelMatrixColumns, []int{columns}),
		element(t, tag.TotalPixelMatrixRows, []int{columns / 2}),
		element(t, tag.SharedFunctionalGroupsSequence, [][]*dicom.Element{group}),
		pixels,
	}}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := dicom.Write(f, ds); err != nil {
		t.Fatalf("dicom.Write failed: %v", err)
	}
}

func TestConvertDICOMFiles(t *testing.T) {
	input := t.TempDir()
	small := [][]byte{{0xFF, 0xD8, 0x01, 0xFF, 0xD9, 0x00}}
	large := [][]byte{
		{0xFF, 0xD8, 0x02, 0x02, 0xFF, 0xD9},
		{0xFF, 0xD8, 0x03, 0x03, 0x03, 0x03, 0xFF, 0xD9},
	}
	writeDICOMLevel(t, filepath.Join(input, "a.dcm"), 512, small...)
	writeDICOMLevel(t, filepath.Join(input, "b.dcm"), 1024, large...)
	if err := os.WriteFile(filepath.Join(input, "notes.txt"), []byte("not a slide"), 0644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(t.TempDir(), "slide.tiff")
	c := converter.NewDICOMConverter(config.Default(), logging.Discard())
	if err := c.Convert(contracts.ConversionRequest{InputPath: input, OutputPath: output}); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	dirs, err := tiff_writer.ReadDirectories(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadDirectories failed: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("got %d directories, want 2", len(dirs))
	}

	for i, want := range [][][]byte{large, small} {
		d := dirs[i]
		if got := field(t, d, tiff_writer.TagImageWidth).Uint(); got != uint64(1024>>i) {
			t.Errorf("directory %d width = %d, want %d", i, got, 1024>>i)
		}
		if got := field(t, d, tiff_writer.TagPhotometricInterpretation).Uint(); got != uint64(tiff_writer.PhotometricYCbCr) {
			t.Errorf("directory %d photometric = %d, want YCbCr", i, got)
		}
		offsets := field(t, d, tiff_writer.TagTileOffsets).Uints()
		counts := field(t, d, tiff_writer.TagTileByteCounts).Uints()
		if len(offsets) != len(want) || len(counts) != len(want) {
			t.Fatalf("directory %d has %d tiles, want %d", i, len(offsets), len(want))
		}
		for j, tile := range want {
			if got := data[offsets[j] : offsets[j]+counts[j]]; !bytes.Equal(got, tile) {
				t.Errorf("directory %d tile %d = % X, want % X", i, j, got, tile)
			}
		}
	}
}
