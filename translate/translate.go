// Package translate maps the configuration file of each lcdproc tool onto store paths.
package translate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/uyuni-project/lcdconf/conferr"
	"github.com/uyuni-project/lcdconf/kv"
	"github.com/uyuni-project/lcdconf/menu"
	"github.com/uyuni-project/lcdconf/source"
)

// Translator converts the sections of one tool's configuration file
type Translator interface {
	// Mode is the tool name the translator is registered under (e.g. "lcdproc")
	Mode() string
	// Translate returns the flat mapping for sections, or an error and no mapping
	Translate(sections *source.Sections) (*kv.Map, error)
}

var registry = map[string]Translator{}

func register(t Translator) {
	registry[t.Mode()] = t
}

// Lookup returns the translator for mode, matched case-insensitively
func Lookup(mode string) (Translator, error) {
	t, ok := registry[strings.ToLower(mode)]
	if !ok {
		return nil, conferr.New(conferr.KindUnsupported, "", "", fmt.Errorf("%w %q", conferr.ErrUnknownMode, mode))
	}
	return t, nil
}

// Modes returns the registered modes in alphabetical order
func Modes() []string {
	modes := make([]string, 0, len(registry))
	for m := range registry {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

// listKey identifies a property by lower case section and key
type listKey struct {
	section string
	key     string
}

// table is a single pass translator: every key of every accepted section is
// copied to prefix + key, as a list if the key is declared in lists and as a
// scalar otherwise
type table struct {
	mode string
	// prefix returns the path prefix for a section, false to skip the section
	prefix func(section string) (string, bool)
	// lists maps list valued keys to the prefix put in front of every item
	lists map[listKey]string
	// withMenu merges the flattened MainMenu tree when the file has one
	withMenu bool
}

func (t *table) Mode() string {
	return t.mode
}

func (t *table) Translate(sections *source.Sections) (*kv.Map, error) {
	out := kv.NewMap()
	for _, name := range sections.Names() {
		prefix, ok := t.prefix(name)
		if !ok {
			continue
		}
		section, _ := sections.Section(name)
		for _, key := range section.Keys() {
			p, _ := section.Property(key)
			path := prefix + key
			itemPrefix, isList := t.lists[listKey{strings.ToLower(name), key}]
			if !isList {
				out.SetScalar(path, p.Scalar())
				continue
			}
			items := p.List()
			for i := range items {
				items[i] = itemPrefix + items[i]
			}
			out.SetList(path, items...)
		}
	}

	if t.withMenu {
		if _, ok := sections.Section(menu.MainMenu); ok {
			tree, err := menu.Flatten(sections)
			if err != nil {
				return nil, err
			}
			out.Merge(tree)
		}
	}
	return out, nil
}
