// Package chunk implements the fixed-size aligned file reader and the
// sequential buffered writer the engine streams every pass through.
//
// Grounded on original_source/source/OverlappedRead.cpp (double-buffer
// alternation for overlapped I/O) and the corpus's lib/readers
// borrowed-buffer idiom (noclose_test.go, repeatable_test.go): buffers
// returned by Reader stay valid only until the next call to StartRead.
package chunk

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Size is the fixed chunk size the engine streams in: 64 KiB.
const Size = 64 * 1024

// Reader performs fixed-size, optionally double-buffered, sequential
// reads from a file, padding the final short chunk with zeros so
// callers never special-case end-of-file mid-chunk.
type Reader struct {
	f          *os.File
	maxLen     int64 // 0 means unbounded (read to EOF)
	readSoFar  int64
	overlapped bool

	bufs    [2][Size]byte
	cur     int  // index of the buffer finishRead will return next
	pending bool // a StartRead has been scheduled but not yet collected
	pendN   int
	pendErr error
	atEOF   bool

	cancelled bool
}

// Open opens path for sequential reading starting at offset, reading
// at most maxLen bytes (0 means to EOF). overlapped enables
// double-buffered prefetch when true.
func Open(path string, offset, maxLen int64, overlapped bool) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "chunk: open")
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "chunk: seek")
		}
	}
	return &Reader{f: f, maxLen: maxLen, overlapped: overlapped}, nil
}

// Cancel marks the reader cancelled; cooperative callers poll
// Cancelled between chunks.
func (r *Reader) Cancel() { r.cancelled = true }

// Cancelled reports whether Cancel has been called.
func (r *Reader) Cancelled() bool { return r.cancelled }

// StartRead schedules the next chunk. With overlapped I/O it performs
// the read now into the alternate buffer so it is ready by the time
// FinishRead is called; without it, StartRead is a no-op and the read
// happens synchronously inside FinishRead.
func (r *Reader) StartRead() {
	if r.pending || r.atEOF {
		return
	}
	if !r.overlapped {
		r.pending = true
		return
	}
	buf := &r.bufs[r.cur]
	n, err := r.readOne(buf[:])
	r.pendN = n
	r.pendErr = err
	r.pending = true
}

// FinishRead returns the most recently completed chunk. After
// end-of-file, it keeps returning a zero-filled buffer with count 0 so
// tail-padding callers never need to branch. The returned slice is
// borrowed: it is only valid until the next call to StartRead.
func (r *Reader) FinishRead() (buf []byte, count int, err error) {
	b := &r.bufs[r.cur]
	if r.atEOF {
		for i := range b {
			b[i] = 0
		}
		return b[:], 0, nil
	}
	if !r.pending {
		r.StartRead()
	}
	var n int
	var readErr error
	if r.overlapped {
		n, readErr = r.pendN, r.pendErr
	} else {
		n, readErr = r.readOne(b[:])
	}
	r.pending = false
	r.cur = 1 - r.cur

	if readErr != nil && readErr != io.EOF {
		return nil, 0, errors.Wrap(readErr, "chunk: read")
	}
	if n < Size {
		r.atEOF = true
		for i := n; i < Size; i++ {
			b[i] = 0
		}
	}
	return b[:], n, nil
}

func (r *Reader) readOne(buf []byte) (int, error) {
	want := len(buf)
	if r.maxLen > 0 {
		remaining := r.maxLen - r.readSoFar
		if remaining <= 0 {
			return 0, io.EOF
		}
		if int64(want) > remaining {
			want = int(remaining)
		}
	}
	n, err := io.ReadFull(r.f, buf[:want])
	r.readSoFar += int64(n)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}
