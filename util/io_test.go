package util

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// nopWriteCloser wraps a Writer into a WriteCloser
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestChecksummingWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewChecksummingWriter(nopWriteCloser{buf})

	_, err := w.Write([]byte("Hello, "))
	assert.Nil(t, err)
	_, err = w.Write([]byte("World"))
	assert.Nil(t, err)
	assert.Nil(t, w.Close())

	assert.EqualValues(t, "Hello, World", buf.String())

	other := NewChecksummingWriter(nopWriteCloser{&bytes.Buffer{}})
	other.Write([]byte("Hello, World"))
	assert.EqualValues(t, other.Checksum(), w.Checksum())
	assert.Len(t, w.Checksum(), 64)

	empty := NewChecksummingWriter(nopWriteCloser{&bytes.Buffer{}})
	assert.EqualValues(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", empty.Checksum())
}
