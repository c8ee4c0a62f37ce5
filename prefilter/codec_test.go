package prefilter

import (
	"bytes"
	"cubemap-prefilter/libio"
	"encoding/binary"
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomFloats(n int, min, max float32) []float32 {
	rng := rand.New(rand.NewSource(42))
	data := make([]float32, n)
	for i := range data {
		data[i] = min + rng.Float32()*(max-min)
	}
	return data
}

// assertRgbeClose checks that every component is within the precision of the shared exponent.
func assertRgbeClose(t *testing.T, expected, actual []float32) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := 0; i+2 < len(expected); i += 3 {
		max := expected[i]
		if expected[i+1] > max {
			max = expected[i+1]
		}
		if expected[i+2] > max {
			max = expected[i+2]
		}
		tolerance := float64(max)/100 + 1e-6
		for c := 0; c < 3; c++ {
			if !assert.InDelta(t, expected[i+c], actual[i+c], tolerance, "component %d", i+c) {
				return
			}
		}
	}
}

func TestRgbeRoundTrip(t *testing.T) {
	data := randomFloats(3*10000, 0, 100)
	buf := bytes.NewBuffer(nil)
	require.NoError(t, EncodeRgbe(buf, data, false))
	assert.Equal(t, len(data)/3*4, buf.Len())

	result, err := DecodeRgbe(buf, false)
	require.NoError(t, err)
	assertRgbeClose(t, data, result)
}

func TestRgbeAlpha(t *testing.T) {
	data := []float32{1, 0.5, 0.25, 0.3, 0, 0, 0, 1}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, EncodeRgbe(buf, data, true))
	assert.Equal(t, 8, buf.Len())

	result, err := DecodeRgbe(buf, true)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0.5, 0.25, 1, 0, 0, 0, 1}, result)
}

func TestRgbeRejectsPartialTexels(t *testing.T) {
	assert.Error(t, EncodeRgbe(bytes.NewBuffer(nil), []float32{1, 2}, false))

	_, err := DecodeRgbe(bytes.NewReader([]byte{1, 2, 3}), false)
	assert.Error(t, err)
}

func TestCubemapEncodeRoundTrip(t *testing.T) {
	const size = 8
	levels := 4
	data := randomFloats(calcCubeMapPixels(size, levels)*3, 0, 20)
	cube, err := NewCubemap(data, size, levels)
	require.NoError(t, err)

	tests := []struct {
		name        string
		opt         EncodeOption
		compression CubeEnvCompression
	}{
		{"none", nil, CubeEnvCompressionNone},
		{"fast", OptCompress(0), CubeEnvCompressionLZ4Fast},
		{"level1", OptCompress(1), CubeEnvCompressionLZ4},
		{"clamped", OptCompress(20), CubeEnvCompressionLZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			require.NoError(t, EncodeCubemap(buf, cube, tt.opt))

			header := CubeEnvHeader{}
			require.NoError(t, binary.Read(bytes.NewReader(buf.Bytes()), binary.LittleEndian, &header))
			assert.Equal(t, uint32(MagicNumberCUBEENV), header.Check)
			assert.Equal(t, tt.compression, header.Compression)
			assert.Equal(t, uint32(size), header.Size)
			assert.Equal(t, uint32(levels), header.Levels)

			decoded, err := DecodeCubemap(buf)
			require.NoError(t, err)
			assert.Equal(t, size, decoded.BaseSize)
			assert.Equal(t, levels, decoded.Levels)
			assertRgbeClose(t, cube.Concat(), decoded.Concat())
		})
	}
}

func TestEncodeRejectsDoubleCompression(t *testing.T) {
	cube := AllocateCubemap(2, 1)
	err := EncodeCubemap(bytes.NewBuffer(nil), cube, OptCompress(0), OptCompress(3))
	assert.Error(t, err)
}

func TestEncodeToBinaryWriter(t *testing.T) {
	cube := AllocateCubemap(4, 3)
	buf := bytes.NewBuffer(nil)
	bw := &libio.BinaryWriter{Dst: buf, Order: binary.LittleEndian}
	require.NoError(t, EncodeCubemap(bw, cube))

	decoded, err := DecodeCubemap(buf)
	require.NoError(t, err)
	assert.Equal(t, cube.Concat(), decoded.Concat())
}

func TestDecodeCubemapErrors(t *testing.T) {
	valid := bytes.NewBuffer(nil)
	require.NoError(t, EncodeCubemap(valid, AllocateCubemap(4, 1)))

	withHeader := func(modify func(h *CubeEnvHeader)) []byte {
		h := CubeEnvHeader{}
		raw := valid.Bytes()
		require.NoError(t, binary.Read(bytes.NewReader(raw), binary.LittleEndian, &h))
		modify(&h)
		out := bytes.NewBuffer(nil)
		require.NoError(t, binary.Write(out, binary.LittleEndian, &h))
		out.Write(raw[binary.Size(h):])
		return out.Bytes()
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"magic", withHeader(func(h *CubeEnvHeader) { h.Check = 0x12345678 })},
		{"version", withHeader(func(h *CubeEnvHeader) { h.Version = 2 })},
		{"compression", withHeader(func(h *CubeEnvHeader) { h.Compression = 7 })},
		{"size", withHeader(func(h *CubeEnvHeader) { h.Size = 0 })},
		{"levels", withHeader(func(h *CubeEnvHeader) { h.Levels = 4 })},
		{"truncated", valid.Bytes()[:valid.Len()-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCubemap(bytes.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func encodeHeader(t *testing.T, header CubeEnvHeader) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, &header))
	return buf.Bytes()
}

func TestDecodeCubemapRejectsHugeSize(t *testing.T) {
	data := encodeHeader(t, CubeEnvHeader{
		Check:   MagicNumberCUBEENV,
		Version: CubeEnvVersion1_000_000,
		Size:    1 << 15,
		Levels:  16,
	})
	_, err := DecodeCubemap(bytes.NewReader(data))
	assert.ErrorContains(t, err, "unsupported")
}

// A header announcing the largest accepted cubemap without any texels must fail
// without allocating memory for the announced texels.
func TestDecodeCubemapHeaderOnly(t *testing.T) {
	for _, compression := range []CubeEnvCompression{CubeEnvCompressionNone, CubeEnvCompressionLZ4} {
		data := encodeHeader(t, CubeEnvHeader{
			Check:       MagicNumberCUBEENV,
			Version:     CubeEnvVersion1_000_000,
			Compression: compression,
			Size:        MaxCubeEnvSize,
			Levels:      13,
		})

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		_, err := DecodeCubemap(bytes.NewReader(data))
		runtime.ReadMemStats(&after)

		assert.Error(t, err, "compression %d", compression)
		assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(32<<20), "compression %d", compression)
	}
}

func TestDecodeCubemapTruncatedLevel(t *testing.T) {
	cube := AllocateCubemap(8, 4)
	buf := bytes.NewBuffer(nil)
	require.NoError(t, EncodeCubemap(buf, cube))

	// cut into the last level
	data := buf.Bytes()[:buf.Len()-2*4]
	_, err := DecodeCubemap(bytes.NewReader(data))
	assert.ErrorContains(t, err, "level 3")
}
