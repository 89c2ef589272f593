package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-ini/ini"
	"github.com/uyuni-project/lcdconf/util"
)

// ChecksumSuffix is appended to the export path to name its checksum file
const ChecksumSuffix = ".b2sum"

// metaPrefix starts the comment line carrying one metadata entry of a key
const metaPrefix = "# @META "

// FileStorage exports keys as an INI file that the configuration store can import
type FileStorage struct {
	path   string
	export *ini.File
	header string
}

// NewFileStorage returns a new Storage writing to the file at path
func NewFileStorage(path string) (*FileStorage, error) {
	if _, err := os.Stat(path + "-in-progress"); err == nil {
		return nil, fmt.Errorf("%s-in-progress: %w", path, ErrStagingNotEmpty)
	}
	s := &FileStorage{path: path}
	s.reset()
	return s, nil
}

// SetHeader sets a comment written at the top of the export
func (s *FileStorage) SetHeader(header string) {
	s.header = header
}

func (s *FileStorage) reset() {
	s.export = ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})
}

func (s *FileStorage) root() *ini.Section {
	return s.export.Section(ini.DefaultSection)
}

// Put stages value at key
func (s *FileStorage) Put(key string, value string) error {
	if _, err := s.root().NewKey(key, value); err != nil {
		return fmt.Errorf("stage %q: %w", key, err)
	}
	return nil
}

// PutMeta stages a metadata entry, exported as a comment above the key
func (s *FileStorage) PutMeta(key string, meta string, value string) error {
	k := s.root().Key(key)
	line := metaPrefix + meta + " = " + value
	if k.Comment == "" {
		k.Comment = line
	} else {
		k.Comment += "\n" + line
	}
	return nil
}

// Commit writes the export to a temporary location, then moves it and its
// checksum to the permanent one
func (s *FileStorage) Commit() (err error) {
	if s.header != "" {
		s.root().Comment = "# " + s.header
	}

	inProgress := s.path + "-in-progress"
	if dir := filepath.Dir(s.path); dir != "." {
		// attempt to create any missing directories in the full path
		if err = os.MkdirAll(dir, os.ModePerm); err != nil {
			return
		}
	}
	file, err := os.Create(inProgress)
	if err != nil {
		return
	}
	writer := util.NewChecksummingWriter(file)
	if _, err = s.export.WriteTo(writer); err != nil {
		writer.Close()
		return
	}
	if err = writer.Close(); err != nil {
		return
	}

	// tmp backup in case something goes wrong
	if err = os.RemoveAll(s.path + "-old"); err != nil {
		return
	}
	err = os.Rename(s.path, s.path+"-old")
	if err != nil && !os.IsNotExist(err) {
		return
	}
	if err = os.Rename(inProgress, s.path); err != nil {
		return
	}
	if err = os.RemoveAll(s.path + "-old"); err != nil {
		return
	}

	sum := writer.Checksum() + "  " + filepath.Base(s.path) + "\n"
	if err = os.WriteFile(s.path+ChecksumSuffix, []byte(sum), 0o644); err != nil {
		return
	}
	log.Info("Export written", "path", s.path, "keys", len(s.root().Keys()))
	s.reset()
	return nil
}

// Discard drops staged keys and any partially written export
func (s *FileStorage) Discard() error {
	s.reset()
	err := os.Remove(s.path + "-in-progress")
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadExport parses an export written by FileStorage back into keys, values
// and metadata, in file order
func ReadExport(path string) (keys []string, values map[string]string, meta map[string]map[string]string, err error) {
	export, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return
	}
	values = map[string]string{}
	meta = map[string]map[string]string{}
	for _, k := range export.Section(ini.DefaultSection).Keys() {
		keys = append(keys, k.Name())
		values[k.Name()] = k.Value()
		for _, line := range strings.Split(k.Comment, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(line, "#;"))
			if !strings.HasPrefix(line, "@META ") {
				continue
			}
			name, value, _ := strings.Cut(strings.TrimPrefix(line, "@META "), "=")
			if meta[k.Name()] == nil {
				meta[k.Name()] = map[string]string{}
			}
			meta[k.Name()][strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}
	return
}
