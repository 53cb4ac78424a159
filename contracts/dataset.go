package contracts

import (
	"fmt"
	"io"
	"strings"
)

type Tag struct {
	Group   uint16
	Element uint16
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// Attribute names a tag by its dictionary keyword so errors stay readable.
type Attribute struct {
	Tag     Tag
	Keyword string
}

func (a Attribute) String() string {
	return a.Keyword + a.Tag.String()
}

type ValueKind int

const (
	KindStrings ValueKind = iota + 1
	KindInts
	KindFloats
	KindBytes
	KindSequence
	KindFragments
	// KindNativePixels marks pixel data stored unencapsulated, which has no
	// fragments to copy.
	KindNativePixels
)

func (k ValueKind) String() string {
	switch k {
	case KindStrings:
		return "strings"
	case KindInts:
		return "ints"
	case KindFloats:
		return "floats"
	case KindBytes:
		return "bytes"
	case KindSequence:
		return "sequence"
	case KindFragments:
		return "fragments"
	case KindNativePixels:
		return "native pixels"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Value struct {
	Kind      ValueKind
	Strings   []string
	Ints      []int
	Floats    []float64
	Bytes     []byte
	Items     []*Dataset
	Fragments [][]byte
}

func StringsValue(s ...string) Value { return Value{Kind: KindStrings, Strings: s} }
func IntsValue(i ...int) Value { return Value{Kind: KindInts, Ints: i} }
func FloatsValue(f ...float64) Value { return Value{Kind: KindFloats, Floats: f} }
func BytesValue(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }
func SequenceValue(items ...*Dataset) Value { return Value{Kind: KindSequence, Items: items} }
func FragmentsValue(frags ...[]byte) Value { return Value{Kind: KindFragments, Fragments: frags} }

// Dataset is a decoded source document: attributes keyed by tag, with
// sequence items as nested datasets.
type Dataset struct {
	values map[Tag]Value
}

func NewDataset() *Dataset {
	return &Dataset{values: make(map[Tag]Value)}
}

// Set stores v under a and returns d so fixtures can be built in one
// expression.
func (d *Dataset) Set(a Attribute, v Value) *Dataset {
	d.values[a.Tag] = v
	return d
}

func (d *Dataset) SetTag(t Tag, v Value) *Dataset {
	d.values[t] = v
	return d
}

func (d *Dataset) Delete(a Attribute) *Dataset {
	delete(d.values, a.Tag)
	return d
}

func (d *Dataset) Len() int {
	return len(d.values)
}

func (d *Dataset) Lookup(a Attribute) (Value, bool) {
	v, ok := d.values[a.Tag]
	return v, ok
}

func (d *Dataset) Has(a Attribute) bool {
	_, ok := d.values[a.Tag]
	return ok
}

func (d *Dataset) lookupKind(a Attribute, kind ValueKind) (Value, error) {
	v, ok := d.values[a.Tag]
	if !ok {
		return Value{}, MissingAttribute(a.String())
	}
	if v.Kind != kind {
		return Value{}, MalformedAttribute(a.String(), fmt.Sprintf("expected %s, got %s", kind, v.Kind))
	}
	return v, nil
}

func (d *Dataset) Strings(a Attribute) ([]string, error) {
	v, err := d.lookupKind(a, KindStrings)
	if err != nil {
		return nil, err
	}
	return v.Strings, nil
}

// String returns the first value of a string attribute with surrounding
// whitespace removed.
func (d *Dataset) String(a Attribute) (string, error) {
	vals, err := d.Strings(a)
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", MalformedAttribute(a.String(), "no values")
	}
	return strings.TrimSpace(vals[0]), nil
}

func (d *Dataset) Int(a Attribute) (int, error) {
	v, err := d.lookupKind(a, KindInts)
	if err != nil {
		return 0, err
	}
	if len(v.Ints) == 0 {
		return 0, MalformedAttribute(a.String(), "no values")
	}
	return v.Ints[0], nil
}

// Uint returns the first value of an integer attribute, checked to lie in
// [0, max].
func (d *Dataset) Uint(a Attribute, max uint64) (uint64, error) {
	i, err := d.Int(a)
	if err != nil {
		return 0, err
	}
	if i < 0 || uint64(i) > max {
		return 0, MalformedAttribute(a.String(), fmt.Sprintf("value %d out of range [0, %d]", i, max))
	}
	return uint64(i), nil
}

func (d *Dataset) Bytes(a Attribute) ([]byte, error) {
	v, err := d.lookupKind(a, KindBytes)
	if err != nil {
		return nil, err
	}
	return v.Bytes, nil
}

func (d *Dataset) Items(a Attribute) ([]*Dataset, error) {
	v, err := d.lookupKind(a, KindSequence)
	if err != nil {
		return nil, err
	}
	return v.Items, nil
}

// FirstItem returns the first item of a sequence attribute; an empty
// sequence is malformed.
func (d *Dataset) FirstItem(a Attribute) (*Dataset, error) {
	items, err := d.Items(a)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, MalformedAttribute(a.String(), "sequence is empty")
	}
	return items[0], nil
}

func (d *Dataset) Fragments(a Attribute) ([][]byte, error) {
	v, ok := d.values[a.Tag]
	if !ok {
		return nil, MissingAttribute(a.String())
	}
	switch v.Kind {
	case KindFragments:
		return v.Fragments, nil
	case KindNativePixels:
		return nil, MalformedAttribute(a.String(), "pixel data is not encapsulated")
	}
	return nil, MalformedAttribute(a.String(), fmt.Sprintf("expected fragments, got %s", v.Kind))
}

// Decoder parses source documents. Both methods read from the current
// position of r.
type Decoder interface {
	// DecodeHeader parses attributes up to, but not including, the pixel
	// data.
	DecodeHeader(r io.ReadSeeker) (*Dataset, error)
	Decode(r io.ReadSeeker) (*Dataset, error)
}
