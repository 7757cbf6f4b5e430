package cbc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer encodes budget records in the format Reader decodes.
// Used to build fixtures; the simulator writes real files.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes one record.
func (wr *Writer) Write(rec *Record) error {
	h := header{
		Kstp:  int32(rec.Step),
		Kper:  int32(rec.Period),
		Text:  padText(rec.Text),
		Ndim1: int32(rec.Dims[0]),
		Ndim2: int32(rec.Dims[1]),
		Ndim3: int32(rec.Dims[2]),
	}
	if rec.Method != MethodFull {
		h.Ndim3 = -h.Ndim3
	}
	if err := binary.Write(wr.w, byteOrder, h); err != nil {
		return err
	}

	switch rec.Method {
	case MethodFull:
		return wr.array(rec)
	case MethodArray:
		if err := wr.compact(rec); err != nil {
			return err
		}
		return wr.array(rec)
	case MethodList:
		if err := wr.compact(rec); err != nil {
			return err
		}
		return wr.list(rec)
	default:
		return fmt.Errorf("write %q: unsupported storage method %d", rec.Text, rec.Method)
	}
}

// Flush writes any buffered data.
func (wr *Writer) Flush() error {
	return wr.w.Flush()
}

func (wr *Writer) compact(rec *Record) error {
	return binary.Write(wr.w, byteOrder, compactHeader{
		Imeth:  int32(rec.Method),
		Delt:   rec.Delt,
		Pertim: rec.Pertim,
		Totim:  rec.Totim,
	})
}

func (wr *Writer) array(rec *Record) error {
	if len(rec.Array) != rec.Size() {
		return fmt.Errorf("write %q: array has %d values, dims %v need %d", rec.Text, len(rec.Array), rec.Dims, rec.Size())
	}
	return binary.Write(wr.w, byteOrder, rec.Array)
}

func (wr *Writer) list(rec *Record) error {
	var names [4][textLen]byte
	for i, n := range rec.Names {
		names[i] = padText(n)
	}
	if err := binary.Write(wr.w, byteOrder, names); err != nil {
		return err
	}

	ndat := int32(1 + len(rec.AuxNames))
	if err := binary.Write(wr.w, byteOrder, ndat); err != nil {
		return err
	}
	for _, a := range rec.AuxNames {
		if err := binary.Write(wr.w, byteOrder, padText(a)); err != nil {
			return err
		}
	}

	if err := binary.Write(wr.w, byteOrder, int32(len(rec.List))); err != nil {
		return err
	}
	for i, e := range rec.List {
		if len(e.Aux) != len(rec.AuxNames) {
			return fmt.Errorf("write %q: entry %d has %d aux values, want %d", rec.Text, i, len(e.Aux), len(rec.AuxNames))
		}
		if err := binary.Write(wr.w, byteOrder, [2]int32{int32(e.ID1), int32(e.ID2)}); err != nil {
			return err
		}
		if err := binary.Write(wr.w, byteOrder, append([]float64{e.Q}, e.Aux...)); err != nil {
			return err
		}
	}
	return nil
}

// padText right-justifies s in a 16-byte field, as the simulator does.
func padText(s string) [textLen]byte {
	var b [textLen]byte
	str := fmt.Sprintf("%*s", textLen, s)
	copy(b[:], str)
	return b
}
