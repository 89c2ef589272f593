// Package conferr defines the errors surfaced while converting a configuration file.
// Every error aborts the run; the Kind only tells the caller what went wrong.
package conferr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a conversion error
type Kind string

const (
	// KindMalformed means a required property is absent
	KindMalformed Kind = "source-malformed"
	// KindResolution means a referenced section does not exist
	KindResolution Kind = "resolution"
	// KindSchema means a value is outside the allowed set (e.g. a parameter Type)
	KindSchema Kind = "schema"
	// KindCycle means a menu transitively references itself
	KindCycle Kind = "cycle"
	// KindUnsupported means the requested mode does not exist
	KindUnsupported Kind = "unsupported"
)

var (
	// ErrMissingProperty is wrapped by KindMalformed errors
	ErrMissingProperty = errors.New("missing property")
	// ErrUnknownSection is wrapped by KindResolution errors
	ErrUnknownSection = errors.New("unknown section")
	// ErrUnknownParameterType is wrapped by KindSchema errors
	ErrUnknownParameterType = errors.New("unknown parameter type")
	// ErrCycle is wrapped by KindCycle errors
	ErrCycle = errors.New("reference cycle")
	// ErrUnknownMode is wrapped by KindUnsupported errors
	ErrUnknownMode = errors.New("unknown mode")
)

// Error carries the section and property an error was found at
type Error struct {
	Kind     Kind
	Section  string
	Property string
	Err      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Section != "" {
		msg += fmt.Sprintf(": section %q", e.Section)
	}
	if e.Property != "" {
		msg += fmt.Sprintf(" property %q", e.Property)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap gives errors.Is/As access to the wrapped error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an Error of the given kind
func New(kind Kind, section, property string, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Section: section, Property: property, Err: err}
}

// MissingProperty reports a required property absent from section
func MissingProperty(section, property string) error {
	return New(KindMalformed, section, property, ErrMissingProperty)
}

// UnknownSection reports a reference from section.property to a name that does not exist
func UnknownSection(section, property, name string) error {
	return New(KindResolution, section, property, fmt.Errorf("%w %q", ErrUnknownSection, name))
}

// IsKind reports whether err is, or wraps, an Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
