package dicom_reader

import (
	"bytes"
	"io"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/suyashkumar/dicom/pkg/uid"

	"dicom2tiff/contracts"
)

func dicomTag(a contracts.Attribute) tag.Tag {
	return tag.Tag{Group: a.Tag.Group, Element: a.Tag.Element}
}

func mustElement(t *testing.T, a contracts.Attribute, data interface{}) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(dicomTag(a), data)
	if err != nil {
		t.Fatalf("NewElement(%s) failed: %v", a, err)
	}
	return el
}

func TestFromElements(t *testing.T) {
	measures := []*dicom.Element{
		mustElement(t, contracts.PixelSpacing, []string{"0.00025", "0.00025"}),
	}
	group := []*dicom.Element{
		mustElement(t, contracts.PixelMeasuresSequence, [][]*dicom.Element{measures}),
	}
	elems := []*dicom.Element{
		mustElement(t, contracts.ImageType, []string{"ORIGINAL", "PRIMARY", "VOLUME", "NONE"}),
		mustElement(t, contracts.TotalPixelMatrixColumns, []int{2000}),
		mustElement(t, contracts.Rows, []int{256}),
		mustElement(t, contracts.ICCProfile, []byte{0x01, 0x02, 0x03, 0x04}),
		mustElement(t, contracts.SharedFunctionalGroupsSequence, [][]*dicom.Element{group}),
	}

	ds, err := FromElements(elems)
	if err != nil {
		t.Fatalf("FromElements failed: %v", err)
	}

	imageType, err := ds.Strings(contracts.ImageType)
	if err != nil || len(imageType) != 4 || imageType[2] != "VOLUME" {
		t.Errorf("ImageType = %v, %v", imageType, err)
	}
	if cols, err := ds.Int(contracts.TotalPixelMatrixColumns); err != nil || cols != 2000 {
		t.Errorf("TotalPixelMatrixColumns = %d, %v", cols, err)
	}
	if rows, err := ds.Int(contracts.Rows); err != nil || rows != 256 {
		t.Errorf("Rows = %d, %v", rows, err)
	}
	if icc, err := ds.Bytes(contracts.ICCProfile); err != nil || !bytes.Equal(icc, []byte{1, 2, 3, 4}) {
		t.Errorf("ICCProfile = %v, %v", icc, err)
	}

	item, err := ds.FirstItem(contracts.SharedFunctionalGroupsSequence)
	if err != nil {
		t.Fatalf("SharedFunctionalGroupsSequence: %v", err)
	}
	inner, err := item.FirstItem(contracts.PixelMeasuresSequence)
	if err != nil {
		t.Fatalf("PixelMeasuresSequence: %v", err)
	}
	spacing, err := inner.Strings(contracts.PixelSpacing)
	if err != nil || len(spacing) != 2 {
		t.Errorf("PixelSpacing = %v, %v", spacing, err)
	}
}

func TestPixelValue(t *testing.T) {
	t.Run("skipped", func(t *testing.T) {
		_, keep, err := pixelValue(dicom.PixelDataInfo{IntentionallySkipped: true})
		if err != nil || keep {
			t.Errorf("skipped pixel data kept=%v err=%v", keep, err)
		}
	})

	t.Run("native", func(t *testing.T) {
		v, keep, err := pixelValue(dicom.PixelDataInfo{})
		if err != nil || !keep || v.Kind != contracts.KindNativePixels {
			t.Errorf("native pixel data = %v kept=%v err=%v", v.Kind, keep, err)
		}
	})

	t.Run("encapsulated without frames", func(t *testing.T) {
		v, keep, err := pixelValue(dicom.PixelDataInfo{IsEncapsulated: true})
		if err != nil || !keep || v.Kind != contracts.KindFragments || len(v.Fragments) != 0 {
			t.Errorf("encapsulated pixel data = %+v kept=%v err=%v", v, keep, err)
		}
	})
}

func TestRemaining(t *testing.T) {
	r := bytes.NewReader(make([]byte, 100))
	if _, err := r.Seek(30, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	n, err := remaining(r)
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if n != 70 {
		t.Errorf("remaining = %d, want 70", n)
	}
	if pos, _ := r.Seek(0, io.SeekCurrent); pos != 30 {
		t.Errorf("position moved to %d", pos)
	}
}

func TestDecodeRejectsNonDICOM(t *testing.T) {
	data := bytes.Repeat([]byte{0}, 256)
	if _, err := New().DecodeHeader(bytes.NewReader(data)); err == nil {
		t.Error("expected error for data without DICM marker")
	}
}

// encodeLevel writes a Part 10 stream for one pyramid level with the given
// tiles as encapsulated pixel data fragments.
func encodeLevel(t *testing.T, tiles ...[]byte) []byte {
	t.Helper()
	meta := func(tg tag.Tag, v string) *dicom.Element {
		el, err := dicom.NewElement(tg, []string{v})
		if err != nil {
			t.Fatalf("NewElement(%v) failed: %v", tg, err)
		}
		return el
	}
	frames := make([]*frame.Frame, len(tiles))
	for i, tile := range tiles {
		frames[i] = &frame.Frame{Encapsulated: true, EncapsulatedData: frame.EncapsulatedFrame{Data: tile}}
	}
	pixels := mustElement(t, contracts.PixelData, dicom.PixelDataInfo{IsEncapsulated: true, Frames: frames})
	pixels.ValueLength = tag.VLUndefinedLength

	measures := []*dicom.Element{mustElement(t, contracts.PixelSpacing, []string{"0.00025", "0.0005"})}
	group := []*dicom.Element{mustElement(t, contracts.PixelMeasuresSequence, [][]*dicom.Element{measures})}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		meta(tag.MediaStorageSOPClassUID, "1.2.840.10008.5.1.4.1.1.77.1.6"),
		meta(tag.MediaStorageSOPInstanceUID, "1.2.3.4.5.6.7"),
		meta(tag.TransferSyntaxUID, uid.ExplicitVRLittleEndian),
		mustElement(t, contracts.ImageType, []string{"ORIGINAL", "PRIMARY", "VOLUME", "NONE"}),
		mustElement(t, contracts.SamplesPerPixel, []int{3}),
		mustElement(t, contracts.PhotometricInterpretation, []string{"RGB"}),
		mustElement(t, contracts.Rows, []int{256}),
		mustElement(t, contracts.Columns, []int{256}),
		mustElement(t, contracts.BitsStored, []int{8}),
		mustElement(t, contracts.LossyImageCompressionMethod, []string{"ISO_10918_1"}),
		mustElement(t, contracts.TotalPixelMatrixColumns, []int{512}),
		mustElement(t, contracts.TotalPixelMatrixRows, []int{256}),
		mustElement(t, contracts.SharedFunctionalGroupsSequence, [][]*dicom.Element{group}),
		pixels,
	}}

	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds); err != nil {
		t.Fatalf("dicom.Write failed: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeEncodedLevel(t *testing.T) {
	tiles := [][]byte{
		{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9},
		{0xFF, 0xD8, 0x03, 0x04, 0x05, 0x06, 0xFF, 0xD9},
	}
	data := encodeLevel(t, tiles...)

	// the decoder reads from the current position, not from byte 0
	prefix := []byte("xyz")
	src := bytes.NewReader(append(append([]byte(nil), prefix...), data...))
	seekPrefix := func(t *testing.T) {
		if _, err := src.Seek(int64(len(prefix)), io.SeekStart); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("header", func(t *testing.T) {
		seekPrefix(t)
		ds, err := New().DecodeHeader(src)
		if err != nil {
			t.Fatalf("DecodeHeader failed: %v", err)
		}
		if ds.Has(contracts.PixelData) {
			t.Error("header pass kept pixel data")
		}
		imageType, err := ds.Strings(contracts.ImageType)
		if err != nil || len(imageType) != 4 || imageType[2] != "VOLUME" {
			t.Errorf("ImageType = %v, %v", imageType, err)
		}
		if cols, err := ds.Int(contracts.TotalPixelMatrixColumns); err != nil || cols != 512 {
			t.Errorf("TotalPixelMatrixColumns = %d, %v", cols, err)
		}
	})

	t.Run("full", func(t *testing.T) {
		seekPrefix(t)
		ds, err := New().Decode(src)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		frags, err := ds.Fragments(contracts.PixelData)
		if err != nil {
			t.Fatalf("Fragments: %v", err)
		}
		if len(frags) != len(tiles) {
			t.Fatalf("got %d fragments, want %d", len(frags), len(tiles))
		}
		for i := range tiles {
			if !bytes.Equal(frags[i], tiles[i]) {
				t.Errorf("fragment %d = % X, want % X", i, frags[i], tiles[i])
			}
		}

		group, err := ds.FirstItem(contracts.SharedFunctionalGroupsSequence)
		if err != nil {
			t.Fatalf("SharedFunctionalGroupsSequence: %v", err)
		}
		measures, err := group.FirstItem(contracts.PixelMeasuresSequence)
		if err != nil {
			t.Fatalf("PixelMeasuresSequence: %v", err)
		}
		spacing, err := measures.Strings(contracts.PixelSpacing)
		if err != nil || len(spacing) != 2 || spacing[0] != "0.00025" || spacing[1] != "0.0005" {
			t.Errorf("PixelSpacing = %q, %v", spacing, err)
		}
	})
}
