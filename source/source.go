// Package source reads the sectioned configuration files of the lcdproc tools.
//
// Files are parsed with go-ini into Sections: section names are case sensitive,
// property names are folded to lower case when they are added, and both keep
// the order in which they appear in the file. A property that occurs more than
// once keeps every occurrence, so it can be read either as a scalar (the last
// occurrence wins) or as a list (all occurrences, each split on newlines).
package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-ini/ini"
)

// ListSeparator separates the items of a multi-line value
const ListSeparator = "\n"

// Property is one named property of a Section with every value it was given
type Property struct {
	// Name as first written in the file
	Name   string
	Values []string
}

// Scalar returns the last value of the property
func (p *Property) Scalar() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[len(p.Values)-1]
}

// List returns every value of the property split into items
func (p *Property) List() []string {
	var items []string
	for _, v := range p.Values {
		items = append(items, SplitList(v)...)
	}
	return items
}

// Section is a named, ordered set of properties with case-insensitive lookup
type Section struct {
	name  string
	keys  []string
	props map[string]*Property
}

// NewSection returns an empty Section
func NewSection(name string) *Section {
	return &Section{name: name, props: map[string]*Property{}}
}

// Name returns the section name
func (s *Section) Name() string {
	return s.name
}

// Add appends a value to the property key, creating it if needed
func (s *Section) Add(key, value string) {
	folded := strings.ToLower(key)
	p, ok := s.props[folded]
	if !ok {
		p = &Property{Name: key}
		s.props[folded] = p
		s.keys = append(s.keys, folded)
	}
	p.Values = append(p.Values, value)
}

// Keys returns the lower case property names in file order
func (s *Section) Keys() []string {
	return append([]string{}, s.keys...)
}

// Property returns the property named key, matched case-insensitively
func (s *Section) Property(key string) (*Property, bool) {
	p, ok := s.props[strings.ToLower(key)]
	return p, ok
}

// Has reports whether the section defines key
func (s *Section) Has(key string) bool {
	_, ok := s.Property(key)
	return ok
}

// Get returns the scalar value of key
func (s *Section) Get(key string) (string, bool) {
	p, ok := s.Property(key)
	if !ok {
		return "", false
	}
	return p.Scalar(), true
}

// List returns the list value of key
func (s *Section) List(key string) ([]string, bool) {
	p, ok := s.Property(key)
	if !ok {
		return nil, false
	}
	return p.List(), true
}

// Sections is the ordered collection of every section of one file
type Sections struct {
	names  []string
	byName map[string]*Section
}

// NewSections returns an empty collection
func NewSections() *Sections {
	return &Sections{byName: map[string]*Section{}}
}

// Add returns the section called name, appending a new one if it does not exist yet
func (ss *Sections) Add(name string) *Section {
	if s, ok := ss.byName[name]; ok {
		return s
	}
	s := NewSection(name)
	ss.byName[name] = s
	ss.names = append(ss.names, name)
	return s
}

// Section looks a section up by its exact name
func (ss *Sections) Section(name string) (*Section, bool) {
	s, ok := ss.byName[name]
	return s, ok
}

// Names returns the section names in file order
func (ss *Sections) Names() []string {
	return append([]string{}, ss.names...)
}

// Len returns the number of sections
func (ss *Sections) Len() int {
	return len(ss.names)
}

// SplitList splits a multi-line value into its non-blank, trimmed lines
func SplitList(value string) []string {
	var items []string
	for _, line := range strings.Split(value, ListSeparator) {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
		AllowPythonMultilineValues: true,
		IgnoreContinuation:         true,
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
	}
}

// Load parses a configuration file. Properties of the DEFAULT section are
// inherited by every other section that does not set them itself.
func Load(r io.Reader) (*Sections, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	file, err := ini.LoadSources(loadOptions(), data)
	if err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	defaults := NewSection(ini.DefaultSection)
	sections := NewSections()
	for _, sec := range file.Sections() {
		target := defaults
		if sec.Name() != ini.DefaultSection {
			target = sections.Add(sec.Name())
		}
		for _, key := range sec.Keys() {
			for _, value := range key.ValueWithShadows() {
				target.Add(key.Name(), value)
			}
		}
	}

	for _, name := range sections.names {
		s := sections.byName[name]
		for _, key := range defaults.keys {
			if !s.Has(key) {
				p := defaults.props[key]
				for _, v := range p.Values {
					s.Add(p.Name, v)
				}
			}
		}
	}
	return sections, nil
}

// LoadFile parses the configuration file at path
func LoadFile(path string) (*Sections, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
