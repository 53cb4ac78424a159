package contracts

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the conversion pipeline either wraps
// one of these or is an I/O error from the underlying source or sink.
var (
	ErrInputClassification = errors.New("no pyramid levels found")
	ErrMissingAttribute    = errors.New("missing attribute")
	ErrMalformedAttribute  = errors.New("malformed attribute")
	ErrUnsupportedFormat   = errors.New("unsupported format")
)

// AttributeError describes a problem with one attribute of a source
// document.
type AttributeError struct {
	Kind      error
	Attribute string
	Value     string
	Reason    string
}

func (e *AttributeError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.Attribute)
	if e.Value != "" {
		msg += fmt.Sprintf(" = %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *AttributeError) Unwrap() error {
	return e.Kind
}

func MissingAttribute(attr string) error {
	return &AttributeError{Kind: ErrMissingAttribute, Attribute: attr}
}

func MalformedAttribute(attr string, reason string) error {
	return &AttributeError{Kind: ErrMalformedAttribute, Attribute: attr, Reason: reason}
}

func UnsupportedFormat(attr string, value string, reason string) error {
	return &AttributeError{Kind: ErrUnsupportedFormat, Attribute: attr, Value: value, Reason: reason}
}
