package cache

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/surcharge/stress"
)

// sampleField returns a small field with values that do not survive a
// decimal round trip, so comparisons catch any loss of precision.
func sampleField(t *testing.T) *stress.Field {
	t.Helper()
	x := []float64{-1, 0, 1.0 / 3}
	y := []float64{-0.5, 0.5}
	z := []float64{0.01, math.Pi}
	sigma := make([]float64, len(x)*len(y)*len(z))
	for i := range sigma {
		sigma[i] = math.Sqrt(float64(i)+0.1) / 7
	}
	f, err := stress.NewField(x, y, z, sigma)
	require.NoError(t, err)
	return f
}

func encodeNPZ(t *testing.T, f *stress.Field) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, writeNPZ(&buf, f))
	return buf.Bytes()
}

func TestNPZ_RoundTripIsExact(t *testing.T) {
	want := sampleField(t)
	data := encodeNPZ(t, want)

	got, err := readNPZ(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNPZ_Members(t *testing.T) {
	data := encodeNPZ(t, sampleField(t))

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		assert.Equal(t, zip.Deflate, f.Method, f.Name)
	}
	assert.Equal(t, []string{"X.npy", "Y.npy", "Z.npy", "sigma.npy"}, names)
}

func TestWriteNPY_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeNPY(&buf, []int{2, 2, 3}, make([]float64, 12)))
	raw := buf.Bytes()

	require.True(t, bytes.HasPrefix(raw, npyMagic))
	assert.Equal(t, []byte{1, 0}, raw[6:8])

	hlen := int(binary.LittleEndian.Uint16(raw[8:10]))
	assert.Zero(t, (10+hlen)%npyAlign, "data must start on a 64-byte boundary")
	header := string(raw[10 : 10+hlen])
	assert.True(t, strings.HasSuffix(header, "\n"))
	assert.Contains(t, header, "'descr': '<f8'")
	assert.Contains(t, header, "'fortran_order': False")
	assert.Contains(t, header, "'shape': (2, 2, 3)")
	assert.Len(t, raw, 10+hlen+12*8)
}

func TestShapeTuple(t *testing.T) {
	assert.Equal(t, "(7,)", shapeTuple([]int{7}))
	assert.Equal(t, "(3, 4, 5)", shapeTuple([]int{3, 4, 5}))
}

func TestReadNPY_Rejects(t *testing.T) {
	valid := func(header string) []byte {
		var buf bytes.Buffer
		buf.Write(npyMagic)
		buf.Write([]byte{1, 0})
		_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
		buf.WriteString(header)
		buf.Write(make([]byte, 16))
		return buf.Bytes()
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("\x93NUMPX\x01\x00\x00\x00")},
		{"version 9", append(append([]byte{}, npyMagic...), 9, 0, 0, 0)},
		{"int dtype", valid("{'descr': '<i8', 'fortran_order': False, 'shape': (2,), }\n")},
		{"big endian", valid("{'descr': '>f8', 'fortran_order': False, 'shape': (2,), }\n")},
		{"fortran", valid("{'descr': '<f8', 'fortran_order': True, 'shape': (2,), }\n")},
		{"scalar", valid("{'descr': '<f8', 'fortran_order': False, 'shape': (), }\n")},
		{"short data", valid("{'descr': '<f8', 'fortran_order': False, 'shape': (3,), }\n")},
		{"huge shape", valid("{'descr': '<f8', 'fortran_order': False, 'shape': (100000, 100000), }\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := readNPY(bytes.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestReadNPZ_Corrupt(t *testing.T) {
	data := encodeNPZ(t, sampleField(t))

	t.Run("truncated", func(t *testing.T) {
		short := data[:len(data)/2]
		_, err := readNPZ(bytes.NewReader(short), int64(len(short)))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("not a zip", func(t *testing.T) {
		junk := []byte("definitely not an archive")
		_, err := readNPZ(bytes.NewReader(junk), int64(len(junk)))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("missing member", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("X.npy")
		require.NoError(t, err)
		require.NoError(t, writeNPY(w, []int{1}, []float64{0}))
		require.NoError(t, zw.Close())

		_, err = readNPZ(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorContains(t, err, "Y.npy")
	})

	t.Run("shape mismatch", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for _, m := range []npzMember{
			{name: "X.npy", shape: []int{2}, data: []float64{0, 1}},
			{name: "Y.npy", shape: []int{1}, data: []float64{0}},
			{name: "Z.npy", shape: []int{1}, data: []float64{1}},
			{name: "sigma.npy", shape: []int{1, 2, 1}, data: []float64{5, 6}},
		} {
			w, err := zw.Create(m.name)
			require.NoError(t, err)
			require.NoError(t, writeNPY(w, m.shape, m.data))
		}
		require.NoError(t, zw.Close())

		_, err := readNPZ(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}
