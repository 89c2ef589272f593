package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "lcdexec.ini")

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	s.SetHeader("lcdconf test export")

	require.NoError(t, s.Put("menu/main", "menu/menu/#0"))
	require.NoError(t, s.PutMeta("menu/menu", "array", "#1"))
	require.NoError(t, s.Put("menu/menu/#0", ""))
	require.NoError(t, s.Put("menu/menu/#1", ""))
	require.NoError(t, s.Put("lcdexec/displayname", "  padded"))
	require.NoError(t, s.Put("lcdexec/address", "localhost"))
	require.NoError(t, s.Put("lcdexec/address", "127.0.0.1"))
	require.NoError(t, s.Commit())

	keys, values, meta, err := ReadExport(path)
	require.NoError(t, err)
	assert.EqualValues(t, []string{"menu/main", "menu/menu", "menu/menu/#0", "menu/menu/#1", "lcdexec/displayname", "lcdexec/address"}, keys)
	assert.EqualValues(t, "menu/menu/#0", values["menu/main"])
	assert.EqualValues(t, "  padded", values["lcdexec/displayname"])
	assert.EqualValues(t, "127.0.0.1", values["lcdexec/address"])
	assert.EqualValues(t, map[string]map[string]string{"menu/menu": {"array": "#1"}}, meta)

	_, err = os.Stat(path + "-in-progress")
	assert.True(t, os.IsNotExist(err))

	sum, err := os.ReadFile(path + ChecksumSuffix)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(sum), "  lcdexec.ini\n"))
	assert.Len(t, strings.Fields(string(sum))[0], 64)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, strings.Split(string(raw), "\n"), "# @META array = #1")
}

func TestFileStorageReplacesPreviousExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcdproc.ini")
	require.NoError(t, os.WriteFile(path, []byte("old = value\n"), 0o644))

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("lcdproc/port", "13666"))
	require.NoError(t, s.Commit())

	keys, values, _, err := ReadExport(path)
	require.NoError(t, err)
	assert.EqualValues(t, []string{"lcdproc/port"}, keys)
	assert.EqualValues(t, "13666", values["lcdproc/port"])
	_, err = os.Stat(path + "-old")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorageRefusesStaleStaging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcdvc.ini")
	require.NoError(t, os.WriteFile(path+"-in-progress", []byte("x = y\n"), 0o644))

	_, err := NewFileStorage(path)
	assert.True(t, errors.Is(err, ErrStagingNotEmpty))
}

func TestFileStorageDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcdvc.ini")

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("lcdvc/port", "13666"))
	require.NoError(t, s.Discard())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is written on discard")

	require.NoError(t, s.Commit())
	keys, _, _, err := ReadExport(path)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
