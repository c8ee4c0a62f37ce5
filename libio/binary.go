package libio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// BinaryReader decodes fixed size values such as file headers.
// The first error is kept and turns every later read into a no-op.
type BinaryReader struct {
	Order binary.ByteOrder
	Src   io.Reader
	// Index is the number of bytes consumed so far, LastIndex the offset of the most recent value.
	Index     int
	LastIndex int
	Err       error
}

func NewBinaryReader(src io.Reader, order binary.ByteOrder) *BinaryReader {
	return &BinaryReader{
		Order: order,
		Src:   src,
	}
}

// ReadRef fills the fixed size value pointed to by data.
func (br *BinaryReader) ReadRef(data any) (ok bool) {
	if br.Err != nil {
		return false
	}
	br.LastIndex = br.Index
	br.Err = binary.Read(br.Src, br.Order, data)
	if br.Err != nil {
		return false
	}
	br.Index += binary.Size(data)
	return true
}

// Join merges the sticky error into err.
func (br *BinaryReader) Join(err error) error {
	return joinSticky(err, br.Err)
}

// BinaryWriter is the counterpart of BinaryReader.
type BinaryWriter struct {
	Order binary.ByteOrder
	Dst   io.Writer
	Index int
	Err   error
}

func NewBinaryWriter(dst io.Writer, order binary.ByteOrder) *BinaryWriter {
	return &BinaryWriter{
		Order: order,
		Dst:   dst,
	}
}

func (bw *BinaryWriter) WriteRef(data any) (ok bool) {
	if bw.Err != nil {
		return false
	}
	bw.Err = binary.Write(bw.Dst, bw.Order, data)
	if bw.Err != nil {
		return false
	}
	bw.Index += binary.Size(data)
	return true
}

func (bw *BinaryWriter) Join(err error) error {
	return joinSticky(err, bw.Err)
}

func joinSticky(err, sticky error) error {
	switch {
	case sticky == nil:
		return err
	case err == nil:
		return sticky
	}
	return fmt.Errorf("%v: %w", err, sticky)
}
