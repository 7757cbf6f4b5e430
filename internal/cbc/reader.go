package cbc

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/reconcile/internal/check"
)

// maxValues bounds any single allocation made from header fields, so a
// corrupt header is reported instead of exhausting memory.
const maxValues = 1 << 28

// maxAux bounds the auxiliary variable count of a list record.
const maxAux = 1 << 10

var byteOrder = binary.LittleEndian

type header struct {
	Kstp  int32
	Kper  int32
	Text  [textLen]byte
	Ndim1 int32
	Ndim2 int32
	Ndim3 int32
}

type compactHeader struct {
	Imeth  int32
	Delt   float64
	Pertim float64
	Totim  float64
}

// Reader decodes budget records from a double-precision binary stream.
type Reader struct {
	r    *bufio.Reader
	name string
	n    int // records read
}

// NewReader creates a Reader. name is used in error messages.
func NewReader(r io.Reader, name string) *Reader {
	return &Reader{r: bufio.NewReader(r), name: name}
}

// Next decodes the next record. Returns io.EOF at a clean end of stream;
// a stream that ends mid-record is a StructuralError.
func (rd *Reader) Next() (*Record, error) {
	var h header
	if err := binary.Read(rd.r, byteOrder, &h); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, rd.fail("read header", err)
	}

	rec := &Record{
		Step:   int(h.Kstp),
		Period: int(h.Kper),
		Text:   trimText(h.Text[:]),
		Dims:   [3]int{int(h.Ndim1), int(h.Ndim2), int(h.Ndim3)},
		Method: MethodFull,
	}
	if h.Ndim3 < 0 {
		rec.Dims[2] = -rec.Dims[2]
		var ch compactHeader
		if err := binary.Read(rd.r, byteOrder, &ch); err != nil {
			return nil, rd.fail("read compact header", err)
		}
		rec.Method = int(ch.Imeth)
		rec.Delt, rec.Pertim, rec.Totim = ch.Delt, ch.Pertim, ch.Totim
	}
	if !validDims(rec.Dims) {
		return nil, rd.fail(fmt.Sprintf("invalid dimensions %v for %q", rec.Dims, rec.Text), nil)
	}

	var err error
	switch rec.Method {
	case MethodFull, MethodArray:
		rec.Array, err = rd.floats(rec.Size())
	case MethodList:
		err = rd.readList(rec)
	default:
		return nil, rd.fail(fmt.Sprintf("unsupported storage method %d for %q", rec.Method, rec.Text), nil)
	}
	if err != nil {
		return nil, rd.fail(fmt.Sprintf("read %q data", rec.Text), err)
	}

	rd.n++
	return rec, nil
}

func (rd *Reader) readList(rec *Record) error {
	var names [4][textLen]byte
	if err := binary.Read(rd.r, byteOrder, &names); err != nil {
		return err
	}
	for i := range names {
		rec.Names[i] = trimText(names[i][:])
	}

	var ndat int32
	if err := binary.Read(rd.r, byteOrder, &ndat); err != nil {
		return err
	}
	if ndat < 1 || ndat-1 > maxAux {
		return fmt.Errorf("invalid value count %d per list entry", ndat)
	}
	if ndat > 1 {
		aux := make([][textLen]byte, ndat-1)
		if err := binary.Read(rd.r, byteOrder, aux); err != nil {
			return err
		}
		rec.AuxNames = make([]string, len(aux))
		for i := range aux {
			rec.AuxNames[i] = trimText(aux[i][:])
		}
	}

	var nlist int32
	if err := binary.Read(rd.r, byteOrder, &nlist); err != nil {
		return err
	}
	if nlist < 0 || int64(nlist)*int64(ndat) > maxValues {
		return fmt.Errorf("invalid list size %d x %d", nlist, ndat)
	}

	rec.List = make([]ListEntry, nlist)
	ids := make([]int32, 2)
	for i := range rec.List {
		if err := binary.Read(rd.r, byteOrder, ids); err != nil {
			return err
		}
		vals, err := rd.floats(int(ndat))
		if err != nil {
			return err
		}
		rec.List[i] = ListEntry{ID1: int(ids[0]), ID2: int(ids[1]), Q: vals[0]}
		if ndat > 1 {
			rec.List[i].Aux = vals[1:]
		}
	}
	return nil
}

// validDims reports whether every dimension is non-negative and their
// product stays within maxValues. The product is checked at each step so it
// cannot overflow.
func validDims(dims [3]int) bool {
	n := int64(1)
	for _, d := range dims {
		if d < 0 || d > maxValues {
			return false
		}
		if n *= int64(d); n > maxValues {
			return false
		}
	}
	return true
}

func (rd *Reader) floats(n int) ([]float64, error) {
	vals := make([]float64, n)
	if n == 0 {
		return vals, nil
	}
	if err := binary.Read(rd.r, byteOrder, vals); err != nil {
		return nil, err
	}
	return vals, nil
}

func (rd *Reader) fail(what string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	msg := fmt.Sprintf("budget record %d: %s", rd.n+1, what)
	if err == nil {
		return check.Structural(rd.name, "%s", msg)
	}
	return check.WrapStructural(rd.name, msg, err)
}

// ReadAll decodes every remaining record.
func (rd *Reader) ReadAll() ([]*Record, error) {
	var out []*Record
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// File is a fully read budget file.
type File struct {
	Path    string
	Records []*Record
}

// Open reads the whole budget file at path and closes it.
// A missing or corrupt file is a StructuralError.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, check.WrapStructural(path, "open budget file", err)
	}
	defer f.Close()

	records, err := NewReader(f, path).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, check.Structural(path, "budget file contains no records")
	}
	return &File{Path: path, Records: records}, nil
}
