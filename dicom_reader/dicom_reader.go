package dicom_reader

import (
	"fmt"
	"io"

	"github.com/suyashkumar/dicom"

	"dicom2tiff/contracts"
)

// Reader decodes DICOM Part 10 streams into contracts.Dataset trees.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// DecodeHeader parses every element but skips the contents of Pixel Data.
func (r *Reader) DecodeHeader(src io.ReadSeeker) (*contracts.Dataset, error) {
	return decode(src, dicom.SkipPixelData())
}

func (r *Reader) Decode(src io.ReadSeeker) (*contracts.Dataset, error) {
	return decode(src)
}

func decode(src io.ReadSeeker, opts ...dicom.ParseOption) (*contracts.Dataset, error) {
	size, err := remaining(src)
	if err != nil {
		return nil, err
	}
	parsed, err := dicom.Parse(src, size, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("error parsing DICOM: %w", err)
	}
	return FromElements(parsed.Elements)
}

// remaining returns the number of bytes between the current position and
// the end of src, leaving the position unchanged.
func remaining(src io.Seeker) (int64, error) {
	cur, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("error getting stream position: %w", err)
	}
	end, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("error seeking to stream end: %w", err)
	}
	if _, err := src.Seek(cur, io.SeekStart); err != nil {
		return 0, fmt.Errorf("error restoring stream position: %w", err)
	}
	return end - cur, nil
}

// FromElements converts parsed elements, recursing into sequence items.
// Skipped pixel data is left out.
func FromElements(elems []*dicom.Element) (*contracts.Dataset, error) {
	ds := contracts.NewDataset()
	for _, el := range elems {
		if el == nil || el.Value == nil {
			continue
		}
		t := contracts.Tag{Group: el.Tag.Group, Element: el.Tag.Element}
		v, keep, err := convertValue(el)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", t, err)
		}
		if keep {
			ds.SetTag(t, v)
		}
	}
	return ds, nil
}

func convertValue(el *dicom.Element) (contracts.Value, bool, error) {
	raw := el.Value.GetValue()
	switch el.Value.ValueType() {
	case dicom.Strings:
		s, ok := raw.([]string)
		if !ok {
			return contracts.Value{}, false, unexpected(raw)
		}
		return contracts.StringsValue(s...), true, nil
	case dicom.Ints:
		i, ok := raw.([]int)
		if !ok {
			return contracts.Value{}, false, unexpected(raw)
		}
		return contracts.IntsValue(i...), true, nil
	case dicom.Floats:
		f, ok := raw.([]float64)
		if !ok {
			return contracts.Value{}, false, unexpected(raw)
		}
		return contracts.FloatsValue(f...), true, nil
	case dicom.Bytes:
		b, ok := raw.([]byte)
		if !ok {
			return contracts.Value{}, false, unexpected(raw)
		}
		return contracts.BytesValue(b), true, nil
	case dicom.Sequences:
		items, ok := raw.([]*dicom.SequenceItemValue)
		if !ok {
			return contracts.Value{}, false, unexpected(raw)
		}
		nested := make([]*contracts.Dataset, 0, len(items))
		for i, item := range items {
			elems, ok := item.GetValue().([]*dicom.Element)
			if !ok {
				return contracts.Value{}, false, fmt.Errorf("item %d: %w", i, unexpected(item.GetValue()))
			}
			sub, err := FromElements(elems)
			if err != nil {
				return contracts.Value{}, false, fmt.Errorf("item %d: %w", i, err)
			}
			nested = append(nested, sub)
		}
		return contracts.SequenceValue(nested...), true, nil
	case dicom.PixelData:
		info, ok := raw.(dicom.PixelDataInfo)
		if !ok {
			return contracts.Value{}, false, unexpected(raw)
		}
		return pixelValue(info)
	}
	// SequenceItem values only occur inside Sequences.
	return contracts.Value{}, false, nil
}

func pixelValue(info dicom.PixelDataInfo) (contracts.Value, bool, error) {
	if info.IntentionallySkipped {
		return contracts.Value{}, false, nil
	}
	if !info.IsEncapsulated {
		return contracts.Value{Kind: contracts.KindNativePixels}, true, nil
	}
	frags := make([][]byte, len(info.Frames))
	for i := range info.Frames {
		frags[i] = info.Frames[i].EncapsulatedData.Data
	}
	return contracts.FragmentsValue(frags...), true, nil
}

func unexpected(v interface{}) error {
	return fmt.Errorf("unexpected value type %T", v)
}
