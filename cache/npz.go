package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/jonwraymond/surcharge/stress"
)

// The disk format is a NumPy .npz archive: a deflate-compressed zip holding
// one .npy array per member. np.load(path) reads it back as X, Y, Z, sigma.

var npyMagic = []byte("\x93NUMPY")

const (
	npyAlign = 64
	// maxElements bounds allocations driven by a (possibly corrupt) header.
	maxElements = 1 << 27
)

var (
	descrRe   = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	fortranRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

type npzMember struct {
	name  string
	shape []int
	data  []float64
}

func fieldMembers(f *stress.Field) []npzMember {
	nz, ny, nx := f.Shape()
	return []npzMember{
		{name: "X.npy", shape: []int{nx}, data: f.X},
		{name: "Y.npy", shape: []int{ny}, data: f.Y},
		{name: "Z.npy", shape: []int{nz}, data: f.Z},
		{name: "sigma.npy", shape: []int{nz, ny, nx}, data: f.Sigma},
	}
}

// writeNPZ encodes f as an .npz archive.
func writeNPZ(w io.Writer, f *stress.Field) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		fw, err := flate.NewWriter(out, flate.BestSpeed)
		if err != nil {
			return nil, err
		}
		return fw, nil
	})

	for _, m := range fieldMembers(f) {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: m.name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("cache: create %s: %w", m.name, err)
		}
		if err := writeNPY(fw, m.shape, m.data); err != nil {
			return fmt.Errorf("cache: write %s: %w", m.name, err)
		}
	}
	return zw.Close()
}

// readNPZ decodes an .npz archive produced by writeNPZ (or numpy.savez with
// the same member names). Any structural problem is reported as ErrCorrupt.
func readNPZ(r io.ReaderAt, size int64) (*stress.Field, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	arrays := make(map[string]npzMember, 4)
	for _, name := range []string{"X.npy", "Y.npy", "Z.npy", "sigma.npy"} {
		f, ok := files[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing member %s", ErrCorrupt, name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
		}
		shape, data, err := readNPY(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
		}
		arrays[name] = npzMember{name: name, shape: shape, data: data}
	}

	x, y, z, sigma := arrays["X.npy"], arrays["Y.npy"], arrays["Z.npy"], arrays["sigma.npy"]
	for _, axis := range []npzMember{x, y, z} {
		if len(axis.shape) != 1 {
			return nil, fmt.Errorf("%w: %s has shape %v, want 1-D", ErrCorrupt, axis.name, axis.shape)
		}
	}
	want := []int{len(z.data), len(y.data), len(x.data)}
	if !slices.Equal(sigma.shape, want) {
		return nil, fmt.Errorf("%w: sigma has shape %v, want %v", ErrCorrupt, sigma.shape, want)
	}

	field, err := stress.NewField(x.data, y.data, z.data, sigma.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return field, nil
}

// writeNPY writes a little-endian float64 C-order array in .npy v1.0 format.
func writeNPY(w io.Writer, shape []int, data []float64) error {
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': %s, }", shapeTuple(shape))

	// magic(6) + version(2) + header length(2) + header + '\n'
	total := len(npyMagic) + 4 + len(header) + 1
	if pad := total % npyAlign; pad != 0 {
		header += strings.Repeat(" ", npyAlign-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Grow(len(npyMagic) + 4 + len(header) + 8*len(data))
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)

	var word [8]byte
	for _, v := range data {
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(v))
		buf.Write(word[:])
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func shapeTuple(shape []int) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.Itoa(n)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// readNPY reads a little-endian float64 C-order .npy array (format 1.x-3.x).
func readNPY(r io.Reader) ([]int, []float64, error) {
	var prefix [8]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, nil, fmt.Errorf("read magic: %w", err)
	}
	if !bytes.Equal(prefix[:6], npyMagic) {
		return nil, nil, errors.New("not an npy array")
	}

	var hlen int
	switch major := prefix[6]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, nil, fmt.Errorf("read header length: %w", err)
		}
		hlen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, nil, fmt.Errorf("read header length: %w", err)
		}
		if n > 1<<20 {
			return nil, nil, fmt.Errorf("header length %d too large", n)
		}
		hlen = int(n)
	default:
		return nil, nil, fmt.Errorf("unsupported npy version %d", major)
	}

	header := make([]byte, hlen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	shape, err := parseHeader(string(header))
	if err != nil {
		return nil, nil, err
	}

	count := 1
	for _, n := range shape {
		if n < 0 || (n > 0 && count > maxElements/n) {
			return nil, nil, fmt.Errorf("shape %v too large", shape)
		}
		count *= n
	}

	raw := make([]byte, 8*count)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("read data: %w", err)
	}
	data := make([]float64, count)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return shape, data, nil
}

func parseHeader(h string) ([]int, error) {
	m := descrRe.FindStringSubmatch(h)
	if m == nil || m[1] != "<f8" {
		return nil, fmt.Errorf("unsupported dtype in header %q", h)
	}
	if m := fortranRe.FindStringSubmatch(h); m == nil || m[1] != "False" {
		return nil, errors.New("fortran-ordered arrays are not supported")
	}
	m = shapeRe.FindStringSubmatch(h)
	if m == nil {
		return nil, fmt.Errorf("missing shape in header %q", h)
	}

	var shape []int
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad shape %q: %w", m[1], err)
		}
		shape = append(shape, n)
	}
	if len(shape) == 0 {
		return nil, errors.New("scalar arrays are not supported")
	}
	return shape, nil
}
