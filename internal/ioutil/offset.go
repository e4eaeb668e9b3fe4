// Package ioutil provides the small offset-tracking helpers the mda
// container writer needs. It plays the same role go-car's unexported
// internal/io package does for its blockstore (offset-aware wrappers around
// a single *os.File), reconstructed here to the minimal shape this module's
// single-pass, write-once container format needs: a writer that always
// knows how many bytes it has emitted, so region boundaries can be
// recorded for the index without a second pass over the file.
package ioutil

import "io"

// CountingWriter wraps an io.Writer and tracks the cumulative number of
// bytes written through it, mirroring the position bookkeeping
// internalio.OffsetWriteSeeker does for go-car's CARv2 writer.
type CountingWriter struct {
	w   io.Writer
	pos int64
}

// NewCountingWriter wraps w, starting the position counter at 0.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.pos += int64(n)
	return n, err
}

// Position returns the number of bytes written so far.
func (c *CountingWriter) Position() int64 {
	return c.pos
}
