package prefilter

import (
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
)

// rgbeChunkSize is the number of encoded bytes processed at once, 16 kib
const rgbeChunkSize = 16384

// encodeRgbeChunk packs len(src)/components texels into dst, four bytes each. Alpha is dropped.
// See: https://www.graphics.cornell.edu/~bjw/rgbe/rgbe.c
func encodeRgbeChunk(components int, src []float32, dst []byte) int {
	n := len(src) / components
	for i := 0; i < n; i++ {
		var (
			r = src[i*components+0]
			g = src[i*components+1]
			b = src[i*components+2]
			j = i * 4
		)

		max := math32.Max(r, math32.Max(g, b))
		if max < 1e-32 {
			dst[j+0] = 0
			dst[j+1] = 0
			dst[j+2] = 0
			dst[j+3] = 0
			continue
		}

		frac, exp := math32.Frexp(max)
		f := frac * 256.0 / max
		dst[j+0] = byte(r * f)
		dst[j+1] = byte(g * f)
		dst[j+2] = byte(b * f)
		dst[j+3] = byte(exp + 128)
	}
	return n * 4
}

// decodeRgbeChunk unpacks len(src)/4 texels into dst and returns the number of floats written.
func decodeRgbeChunk(components int, src []byte, dst []float32) int {
	n := len(src) / 4
	for i := 0; i < n; i++ {
		var (
			r = src[i*4+0]
			g = src[i*4+1]
			b = src[i*4+2]
			e = src[i*4+3]
			j = i * components
		)

		if components == 4 {
			dst[j+3] = 1.0
		}

		if e == 0 {
			dst[j+0] = 0
			dst[j+1] = 0
			dst[j+2] = 0
			continue
		}

		f := math32.Ldexp(1.0, int(e)-(128+8))
		dst[j+0] = float32(r) * f
		dst[j+1] = float32(g) * f
		dst[j+2] = float32(b) * f
	}
	return n * components
}

func rgbeComponents(hasAlpha bool) int {
	if hasAlpha {
		return 4
	}
	return 3
}

// EncodeRgbe writes data as RGBE, four bytes per texel.
func EncodeRgbe(w io.Writer, data []float32, hasAlpha bool) error {
	components := rgbeComponents(hasAlpha)
	if len(data)%components != 0 {
		return fmt.Errorf("source not a multiple of %d floats", components)
	}

	buf := make([]byte, rgbeChunkSize)
	step := rgbeChunkSize / 4 * components
	for i := 0; i < len(data); i += step {
		j := i + step
		if j > len(data) {
			j = len(data)
		}
		n := encodeRgbeChunk(components, data[i:j], buf)
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeRgbe reads RGBE texels until r is exhausted.
func DecodeRgbe(r io.Reader, hasAlpha bool) ([]float32, error) {
	components := rgbeComponents(hasAlpha)
	buf := make([]byte, rgbeChunkSize)
	result := make([]float32, 0, rgbeChunkSize/4*components)

	for {
		n, err := io.ReadFull(r, buf)
		if err != nil && !(errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
			return nil, err
		}

		if n%4 != 0 {
			return nil, fmt.Errorf("source not a multiple of 4 bytes")
		}

		start := len(result)
		result = append(result, make([]float32, n/4*components)...)
		decodeRgbeChunk(components, buf[:n], result[start:])

		if err != nil {
			break
		}
	}

	return result[:len(result):len(result)], nil
}
