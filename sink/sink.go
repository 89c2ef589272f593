// Package sink writes a flat key-value mapping into a storage backend
package sink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/uyuni-project/lcdconf/kv"
	"github.com/uyuni-project/lcdconf/storage"
)

// ArrayMeta names the metadata entry holding the index of the last element of a list
const ArrayMeta = "array"

var booleans = map[string]bool{
	"false": true, "n": true, "no": true, "off": true,
	"true": true, "y": true, "yes": true, "on": true,
}

// Normalize canonicalizes booleans to lowercase and strips one pair of
// surrounding double quotes
func Normalize(value string) string {
	if lower := strings.ToLower(value); booleans[lower] {
		return lower
	}
	return Unquote(value)
}

// Unquote strips one pair of surrounding double quotes
func Unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}

// Writer puts every path of a mapping under Root into Storage
type Writer struct {
	Storage storage.Storage
	Root    string
}

func (w *Writer) key(path string) string {
	if w.Root == "" {
		return path
	}
	return strings.TrimSuffix(w.Root, kv.Separator) + kv.Separator + path
}

// Write stages the whole mapping and commits it. Nothing is committed when
// any key fails: staged data is discarded instead.
func (w *Writer) Write(m *kv.Map) (err error) {
	defer func() {
		if err == nil {
			return
		}
		if derr := w.Storage.Discard(); derr != nil {
			err = errors.Join(err, fmt.Errorf("discard: %w", derr))
		}
	}()

	scalars, lists := 0, 0
	for _, path := range m.Keys() {
		v, _ := m.Get(path)
		if v.IsList {
			err = w.putList(w.key(path), v.Items)
			lists++
		} else {
			err = w.put(w.key(path), Normalize(v.Scalar))
			scalars++
		}
		if err != nil {
			return err
		}
	}

	if err = w.Storage.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Info("Keys written", "root", w.Root, "scalars", scalars, "lists", lists)
	return nil
}

func (w *Writer) put(key, value string) error {
	log.Debug("put", "key", key, "value", value)
	if err := w.Storage.Put(key, value); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// putList records the index of the last element as array metadata of key,
// then the elements themselves at key/#0 .. key/#n
func (w *Writer) putList(key string, items []string) error {
	last := ""
	if len(items) > 0 {
		last = kv.ArrayIndex(len(items) - 1)
	}
	log.Debug("putList", "key", key, "array", last)
	if err := w.Storage.PutMeta(key, ArrayMeta, last); err != nil {
		return fmt.Errorf("put %q meta %s: %w", key, ArrayMeta, err)
	}
	for i, item := range items {
		if err := w.put(key+kv.Separator+kv.ArrayIndex(i), Unquote(item)); err != nil {
			return err
		}
	}
	return nil
}
