package dataset

import (
	"bufio"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Reader streams a COS blocked dataset, transparently skipping BCWs and
// surfacing record/file/dataset boundaries as zero-length reads.
type Reader struct {
	path string
	file *os.File
	mm   mmap.MMap // non-nil when the input was mmap-able
	data []byte    // the whole dataset, either mm or a buffered read

	pos    int // byte offset of the next unread byte
	nextCW int // byte offset of the next control word to process
	lastCW ControlWord
}

// Open opens path for reading. It first tries to memory-map the file
// (the approach this dependency family uses elsewhere for binary-format
// parsing, e.g. the PE/ELF readers in this corpus); inputs that cannot be
// mapped — a pipe, or "-" for stdin — fall back to a fully buffered read.
func Open(path string) (*Reader, error) {
	r := &Reader{path: path}

	if path == "-" {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return nil, err
		}
		r.data = data
		return r, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if m, err := mmap.Map(f, mmap.RDONLY, 0); err == nil {
		r.file = f
		r.mm = m
		r.data = []byte(m)
		return r, nil
	}

	data, err := io.ReadAll(bufio.NewReader(f))
	f.Close()
	if err != nil {
		return nil, err
	}
	r.data = data
	return r, nil
}

// Close releases the underlying mapping or file.
func (r *Reader) Close() error {
	if r.mm != nil {
		if err := r.mm.Unmap(); err != nil {
			r.file.Close()
			return err
		}
		return r.file.Close()
	}
	return nil
}

// Rewind resets the reader to the start of the dataset.
func (r *Reader) Rewind() {
	r.pos = 0
	r.nextCW = 0
	r.lastCW = ControlWord{}
}

// ReadCW returns the control word that most recently ended a record, file
// or dataset — the one observed by the Read call that returned 0.
func (r *Reader) ReadCW() ControlWord {
	return r.lastCW
}

func blockStart(pos int) int {
	return (pos / BlockSize) * BlockSize
}

// Read copies up to len(buf) bytes of the current record into buf. It
// returns 0 (and no error) exactly when positioned at a record, file or
// dataset boundary; ReadCW then reports which kind of control word it was.
// BCWs are consumed and skipped without ever being surfaced to the caller.
func (r *Reader) Read(buf []byte) (int, error) {
	for r.pos == r.nextCW {
		if r.pos+WordSize > len(r.data) {
			return 0, &ShortReadError{Path: r.path, Want: WordSize, Have: len(r.data) - r.pos}
		}
		cwPos := r.pos
		cw := getControlWord(r.data[cwPos : cwPos+WordSize])
		r.lastCW = cw
		r.pos += WordSize

		switch cw.Class {
		case ClassBCW:
			if cw.FWI == 0 {
				r.nextCW = blockStart(cwPos) + BlockSize
			} else {
				r.nextCW = cwPos + cw.FWI*WordSize
			}
			continue
		case ClassEOR:
			if cw.FWI == 0 {
				r.nextCW = blockStart(cwPos) + BlockSize
			} else {
				r.nextCW = cwPos + cw.FWI*WordSize
			}
			return 0, nil
		case ClassEOF, ClassEOD:
			r.nextCW = blockStart(cwPos) + BlockSize
			return 0, nil
		default:
			return 0, &MalformedError{Path: r.path, Msg: "unrecognised control word class"}
		}
	}

	if r.nextCW > len(r.data) {
		return 0, &ShortReadError{Path: r.path, Want: r.nextCW - r.pos, Have: len(r.data) - r.pos}
	}

	avail := r.nextCW - r.pos
	n := len(buf)
	if n > avail {
		n = avail
	}
	copy(buf[:n], r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

// ReadFull reads exactly len(buf) bytes, treating a short record as a
// fatal ShortReadError rather than silently returning fewer bytes.
func (r *Reader) ReadFull(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		if err != nil {
			return err
		}
		if n == 0 {
			return &ShortReadError{Path: r.path, Want: len(buf) - total, Have: 0}
		}
		total += n
	}
	return nil
}
