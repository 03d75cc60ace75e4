package dataset

import (
	"fmt"
	"os"
)

// Writer builds a COS blocked dataset in memory and flushes it to disk on
// Close. Block control words are inserted automatically every
// WordsPerBlock words; forward-word-index fields are back-patched once the
// position of the next control word in the same block becomes known, the
// same way a real COS writer links each BCW/RCW to the next.
type Writer struct {
	path string
	buf  []byte

	lastCWOffset      int // byte offset of the most recently emitted control word, -1 if none
	lastBCWOffset     int // byte offset of the most recently emitted BCW, -1 if none
	lastBCWBlockIndex int
}

// Create opens path for writing a new dataset and emits the first block's
// BCW.
func Create(path string) (*Writer, error) {
	w := &Writer{path: path, lastCWOffset: -1, lastBCWOffset: -1}
	w.emitBCW()
	return w, nil
}

func (w *Writer) blockIndexOf(offset int) int {
	return offset / BlockSize
}

// ensureRoom rolls over to a fresh block (emitting its BCW) if the current
// write position has crossed into a block that doesn't have one yet.
func (w *Writer) ensureRoom() {
	if w.lastBCWOffset < 0 || blockStart(len(w.buf)) != blockStart(w.lastBCWOffset) {
		w.emitBCW()
	}
}

func (w *Writer) emitBCW() {
	offset := len(w.buf)
	blockIdx := w.blockIndexOf(offset)
	bwi := 0
	if w.lastBCWOffset >= 0 {
		bwi = blockIdx - w.lastBCWBlockIndex
	}
	w.appendControlWord(ControlWord{Class: ClassBCW, BWI: bwi})
	w.lastBCWOffset = offset
	w.lastBCWBlockIndex = blockIdx
}

// appendControlWord patches the previous control word's FWI (if it lives
// in the same block as the new one) and appends the new control word with
// FWI left at 0, to be patched in turn by whatever control word follows it.
func (w *Writer) appendControlWord(cw ControlWord) {
	offset := len(w.buf)
	if w.lastCWOffset >= 0 && blockStart(w.lastCWOffset) == blockStart(offset) {
		fwi := (offset - w.lastCWOffset) / WordSize
		patched := getControlWord(w.buf[w.lastCWOffset : w.lastCWOffset+WordSize])
		patched.FWI = fwi
		putControlWord(w.buf[w.lastCWOffset:w.lastCWOffset+WordSize], patched)
	}
	w.buf = append(w.buf, make([]byte, WordSize)...)
	putControlWord(w.buf[offset:offset+WordSize], cw)
	w.lastCWOffset = offset
}

// Write appends a word-aligned data payload, rolling to new blocks (with
// automatic BCWs) as needed. len(data) must be a multiple of WordSize.
func (w *Writer) Write(data []byte) (int, error) {
	if len(data)%WordSize != 0 {
		return 0, fmt.Errorf("dataset: Write requires a word-aligned payload, got %d bytes", len(data))
	}
	written := 0
	for written < len(data) {
		w.ensureRoom()
		blockEnd := blockStart(len(w.buf)) + BlockSize
		roomWords := (blockEnd - len(w.buf)) / WordSize
		chunkWords := (len(data) - written) / WordSize
		if chunkWords > roomWords {
			chunkWords = roomWords
		}
		chunk := chunkWords * WordSize
		w.buf = append(w.buf, data[written:written+chunk]...)
		written += chunk
	}
	return written, nil
}

// WriteWord appends a single 64-bit word.
func (w *Writer) WriteWord(word uint64) error {
	var b [WordSize]byte
	for i := 0; i < WordSize; i++ {
		b[WordSize-1-i] = byte(word >> (8 * i))
	}
	_, err := w.Write(b[:])
	return err
}

// WriteEOR closes the current record.
func (w *Writer) WriteEOR() {
	w.ensureRoom()
	w.appendControlWord(ControlWord{Class: ClassEOR})
}

// WriteEOF closes the current file.
func (w *Writer) WriteEOF() {
	w.ensureRoom()
	w.appendControlWord(ControlWord{Class: ClassEOF})
}

// WriteEOD closes the current file and the dataset as a whole, and implies
// a final flush of all containment.
func (w *Writer) WriteEOD() {
	w.ensureRoom()
	w.appendControlWord(ControlWord{Class: ClassEOD})
}

// Close pads the final block to a full BlockSize and writes the dataset to
// disk. On any failure the caller is responsible for unlinking the
// partial output file — Close itself never retries.
func (w *Writer) Close() error {
	if rem := len(w.buf) % BlockSize; rem != 0 {
		w.buf = append(w.buf, make([]byte, BlockSize-rem)...)
	}
	return os.WriteFile(w.path, w.buf, 0o644)
}
