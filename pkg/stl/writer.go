package stl

import (
	"bufio"
	"encoding/binary"
	"io"
	stdmath "math"
	"os"

	"github.com/pkg/errors"
)

// Writer streams triangles to a seekable output. The header is reserved up
// front and the triangle count is patched in by Close, so the mesh never
// has to be held in memory.
type Writer struct {
	out    io.WriteSeeker
	closer io.Closer
	bw     *bufio.Writer
	start  int64
	count  uint64
	rec    [RecordSize]byte
	err    error
	closed bool
}

// NewWriter writes a header and returns a Writer appending to w.
// w must implement io.Seeker and actually support seeking; pipes and
// sockets are rejected with ErrNotSeekable before anything is written.
func NewWriter(w io.Writer, header string) (*Writer, error) {
	ws, ok := w.(io.WriteSeeker)
	if !ok {
		return nil, ErrNotSeekable
	}
	start, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(ErrNotSeekable, err.Error())
	}

	sw := &Writer{
		out:   ws,
		bw:    bufio.NewWriterSize(ws, 64*1024),
		start: start,
	}

	var head [HeaderSize + CountSize]byte
	copy(head[:HeaderSize], header)
	if _, err := sw.bw.Write(head[:]); err != nil {
		return nil, errors.Wrap(err, "writing stl header")
	}
	return sw, nil
}

// Create creates the file at path and returns a Writer that closes it.
func Create(path, header string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	w, err := NewWriter(f, header)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// WriteTriangle appends one record. After the first error every call
// returns that error.
func (w *Writer) WriteTriangle(t Triangle) error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.err != nil {
		return w.err
	}
	if w.count >= stdmath.MaxUint32 {
		w.err = ErrTooManyTriangles
		return w.err
	}

	putVec(w.rec[0:], t.Normal.Array())
	for i, v := range t.V {
		putVec(w.rec[12+12*i:], v.Array())
	}
	// Bytes 48:50 (attribute byte count) stay zero.
	if _, err := w.bw.Write(w.rec[:]); err != nil {
		w.err = errors.Wrap(err, "writing stl triangle")
		return w.err
	}
	w.count++
	return nil
}

// Count returns the number of triangles written so far.
func (w *Writer) Count() uint32 {
	return uint32(w.count)
}

// Close flushes pending records, rewrites the header count and closes the
// underlying file if the Writer opened it. Output is invalid if Close
// returns an error.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	err := w.finish()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing stl output")
		}
	}
	return err
}

func (w *Writer) finish() error {
	if w.err != nil {
		return w.err
	}
	if err := w.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing stl output")
	}
	end, err := w.out.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "seeking stl output")
	}
	if _, err := w.out.Seek(w.start+HeaderSize, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking to stl count")
	}
	var count [CountSize]byte
	binary.LittleEndian.PutUint32(count[:], uint32(w.count))
	if _, err := w.out.Write(count[:]); err != nil {
		return errors.Wrap(err, "patching stl count")
	}
	if _, err := w.out.Seek(end, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking stl output")
	}
	return nil
}

func putVec(b []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(b[0:], stdmath.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(b[4:], stdmath.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(b[8:], stdmath.Float32bits(v[2]))
}
