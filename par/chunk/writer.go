package chunk

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// Writer is a sequential, pass-through-buffered writer. Errors are
// reported, not retried, per spec.md §4.C.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// Create truncates and creates path for writing.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "chunk: create")
	}
	return &Writer{f: f, w: bufio.NewWriterSize(f, Size)}, nil
}

// Write appends p to the file.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "chunk: write")
	}
	return n, nil
}

// WriteAt writes p at the given absolute offset, bypassing the
// sequential buffer. Used by par/parfile to rewrite a header in place
// after the body has already been streamed out.
func (w *Writer) WriteAt(p []byte, offset int64) error {
	if err := w.w.Flush(); err != nil {
		return errors.Wrap(err, "chunk: flush before seek-write")
	}
	if _, err := w.f.WriteAt(p, offset); err != nil {
		return errors.Wrap(err, "chunk: write at offset")
	}
	return nil
}

// Close flushes any buffered bytes and closes the file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return errors.Wrap(err, "chunk: flush")
	}
	return w.f.Close()
}

// Abandon flushes whatever is buffered and closes the file, ignoring
// any error, for the cancellation path where partial output is left on
// disk.
func (w *Writer) Abandon() {
	_ = w.w.Flush()
	_ = w.f.Close()
}
