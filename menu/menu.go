// Package menu flattens the lcdexec menu tree into store paths.
//
// The tree is not stored anywhere as such: the MainMenu section names its
// entries, each entry is a section that is either a command (it has Exec) or a
// submenu (it has its own Entry list), and commands name parameter sections.
// Flatten walks that reference graph depth first and assigns every menu,
// command and parameter the next index of its own category:
//
//	menu/main                       -> menu/menu/#0
//	menu/menu/#0/entries            -> [menu/command/#0, menu/menu/#1]
//	menu/command/#0/exec            -> /bin/true
//	menu/parameter/slider/#0/value  -> 5
//	menu/menu                       -> one placeholder per menu (array size)
package menu

import (
	"fmt"
	"strings"

	"github.com/uyuni-project/lcdconf/conferr"
	"github.com/uyuni-project/lcdconf/kv"
	"github.com/uyuni-project/lcdconf/source"
)

const (
	// MainMenu is the section the walk starts from
	MainMenu = "MainMenu"

	// MainKey holds the path of the root menu
	MainKey = "menu/main"

	menusKey      = "menu/menu"
	commandsKey   = "menu/command"
	parametersKey = "menu/parameter"

	propEntry       = "Entry"
	propExec        = "Exec"
	propDisplayName = "DisplayName"
	propFeedback    = "Feedback"
	propParameter   = "Parameter"
	propType        = "Type"
)

// ParameterTypes lists the accepted parameter types in the order their
// array sizes are emitted
var ParameterTypes = []string{"slider", "checkbox", "numeric", "ring", "alpha", "ip"}

// RootMenu is the path of the implicit root menu
var RootMenu = kv.Join(menusKey, kv.ArrayIndex(0))

// Flatten walks the menu tree rooted at the MainMenu section. Nothing is
// returned unless the whole tree could be walked.
func Flatten(sections *source.Sections) (*kv.Map, error) {
	w := newWalker(sections)
	out, err := w.flattenMainMenu()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// walker owns the counters and output of a single run
type walker struct {
	sections *source.Sections
	out      *kv.Map

	// next free index per category; menu 0 is the root
	menus      int
	commands   int
	parameters map[string]int

	// sections on the current descent path, in order
	path   []string
	onPath map[string]bool
}

func newWalker(sections *source.Sections) *walker {
	w := &walker{
		sections:   sections,
		out:        kv.NewMap(),
		menus:      1,
		parameters: map[string]int{},
		onPath:     map[string]bool{},
	}
	for _, t := range ParameterTypes {
		w.parameters[t] = 0
	}
	return w
}

func (w *walker) flattenMainMenu() (*kv.Map, error) {
	w.out.SetScalar(MainKey, RootMenu)

	main, err := w.enter(MainMenu, "", "")
	if err != nil {
		return nil, err
	}
	if err := w.walkEntries(main, RootMenu+kv.Separator); err != nil {
		return nil, err
	}
	w.leave()

	w.out.Set(menusKey, kv.Placeholders(w.menus))
	w.out.Set(commandsKey, kv.Placeholders(w.commands))
	for _, t := range ParameterTypes {
		w.out.Set(kv.Join(parametersKey, t), kv.Placeholders(w.parameters[t]))
	}
	return w.out, nil
}

// enter resolves name, referenced from from.property, and pushes it on the
// descent path. A name already on the path is a cycle.
func (w *walker) enter(name, from, property string) (*source.Section, error) {
	section, ok := w.sections.Section(name)
	if !ok {
		if from == "" {
			return nil, conferr.New(conferr.KindResolution, name, "", conferr.ErrUnknownSection)
		}
		return nil, conferr.UnknownSection(from, property, name)
	}
	if w.onPath[name] {
		chain := strings.Join(append(w.path, name), " -> ")
		return nil, conferr.New(conferr.KindCycle, from, property, fmt.Errorf("%w: %s", conferr.ErrCycle, chain))
	}
	w.path = append(w.path, name)
	w.onPath[name] = true
	return section, nil
}

func (w *walker) leave() {
	last := w.path[len(w.path)-1]
	w.path = w.path[:len(w.path)-1]
	delete(w.onPath, last)
}

// walkEntries flattens every entry of section and lists their paths at prefix + "entries"
func (w *walker) walkEntries(section *source.Section, prefix string) error {
	entries, ok := section.List(propEntry)
	if !ok {
		return conferr.MissingProperty(section.Name(), propEntry)
	}

	entriesKey := prefix + "entries"
	w.out.SetList(entriesKey)
	for _, name := range entries {
		entry, err := w.enter(name, section.Name(), propEntry)
		if err != nil {
			return err
		}

		var entryPath string
		if isCommand(entry) {
			entryPath = kv.Join(commandsKey, kv.ArrayIndex(w.commands))
			w.commands++
			err = w.walkCommand(entry, entryPath+kv.Separator)
		} else {
			entryPath = kv.Join(menusKey, kv.ArrayIndex(w.menus))
			w.menus++
			err = w.walkMenu(entry, entryPath+kv.Separator)
		}
		if err != nil {
			return err
		}
		w.leave()

		w.out.Append(entriesKey, entryPath)
	}
	return nil
}

// isCommand reports whether an entry is a command. Exec makes a command; a
// section without Exec or Entry that carries command properties is a command
// whose Exec is missing.
func isCommand(entry *source.Section) bool {
	if entry.Has(propExec) {
		return true
	}
	return !entry.Has(propEntry) && (entry.Has(propParameter) || entry.Has(propFeedback))
}

func (w *walker) walkMenu(section *source.Section, prefix string) error {
	w.copyScalar(section, propDisplayName, prefix)
	return w.walkEntries(section, prefix)
}

func (w *walker) walkCommand(section *source.Section, prefix string) error {
	w.copyScalar(section, propDisplayName, prefix)
	if !w.copyScalar(section, propExec, prefix) {
		return conferr.New(conferr.KindSchema, section.Name(), propExec, conferr.ErrMissingProperty)
	}
	w.copyScalar(section, propFeedback, prefix)

	params, ok := section.List(propParameter)
	if !ok {
		return nil
	}
	paramsKey := prefix + "parameters"
	w.out.SetList(paramsKey)
	for _, name := range params {
		paramPath, err := w.walkParameter(section.Name(), name)
		if err != nil {
			return err
		}
		w.out.Append(paramsKey, paramPath)
	}
	return nil
}

// walkParameter copies every property of the parameter section name and
// returns the path it was stored under
func (w *walker) walkParameter(command, name string) (string, error) {
	param, ok := w.sections.Section(name)
	if !ok {
		return "", conferr.UnknownSection(command, propParameter, name)
	}
	typ, ok := param.Get(propType)
	if !ok {
		return "", conferr.MissingProperty(name, propType)
	}
	folded := strings.ToLower(strings.TrimSpace(typ))
	index, ok := w.parameters[folded]
	if !ok {
		return "", conferr.New(conferr.KindSchema, name, propType, fmt.Errorf("%w %q", conferr.ErrUnknownParameterType, typ))
	}
	w.parameters[folded] = index + 1

	paramPath := kv.Join(parametersKey, folded, kv.ArrayIndex(index))
	for _, key := range param.Keys() {
		value, _ := param.Get(key)
		w.out.SetScalar(kv.Join(paramPath, key), value)
	}
	return paramPath, nil
}

// copyScalar copies property to prefix + lower(property) and reports whether it existed
func (w *walker) copyScalar(section *source.Section, property, prefix string) bool {
	value, ok := section.Get(property)
	if ok {
		w.out.SetScalar(prefix+strings.ToLower(property), value)
	}
	return ok
}
