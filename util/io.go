package util

import (
	"encoding/hex"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
)

// ChecksummingWriter hashes everything written through it with BLAKE2b-256
type ChecksummingWriter struct {
	writer io.WriteCloser
	hash   hash.Hash
}

// NewChecksummingWriter wraps writer
func NewChecksummingWriter(writer io.WriteCloser) *ChecksummingWriter {
	// New256 only fails for keys longer than 64 bytes
	h, _ := blake2b.New256(nil)
	return &ChecksummingWriter{writer, h}
}

// Write delegates to the wrapped Writer and hashes what was written
func (w *ChecksummingWriter) Write(p []byte) (n int, err error) {
	n, err = w.writer.Write(p)
	w.hash.Write(p[:n])
	return
}

// Close closes the wrapped Writer
func (w *ChecksummingWriter) Close() error {
	return w.writer.Close()
}

// Checksum returns the hex encoded hash of everything written so far
func (w *ChecksummingWriter) Checksum() string {
	return hex.EncodeToString(w.hash.Sum(nil))
}
