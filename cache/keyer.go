package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/jonwraymond/surcharge/stress"
)

// DefaultPrecision is the number of decimal places floats are rounded to
// before hashing.
const DefaultPrecision = 6

// Keyer derives deterministic cache keys from computation inputs.
//
// Contract:
// - Determinism: same inputs produce the same key regardless of map
//   iteration order; floats equal after rounding produce the same key.
// - Concurrency: a Keyer is immutable after construction.
type Keyer struct {
	precision int
	params    map[string]any
}

// KeyerOption configures a Keyer.
type KeyerOption func(*Keyer)

// WithPrecision sets the rounding precision in decimal places.
func WithPrecision(decimals int) KeyerOption {
	return func(k *Keyer) {
		if decimals >= 0 {
			k.precision = decimals
		}
	}
}

// WithParam adds a setting that changes computed results (such as the
// quadrature order) to every key.
func WithParam(name string, value any) KeyerOption {
	return func(k *Keyer) {
		k.params[name] = value
	}
}

// NewKeyer creates a keyer with DefaultPrecision.
func NewKeyer(opts ...KeyerOption) *Keyer {
	k := &Keyer{precision: DefaultPrecision, params: map[string]any{}}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Precision returns the rounding precision in decimal places.
func (k *Keyer) Precision() int {
	return k.precision
}

// Key generates a deterministic cache key.
// Format: <namespace>:<hash>
// where hash is the first 16 characters of SHA-256(canonical JSON(input)).
func (k *Keyer) Key(namespace string, input any) (Key, error) {
	payload := map[string]any{"input": input}
	if len(k.params) > 0 {
		payload["params"] = k.params
	}

	canonical, err := k.canonicalize(payload)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize input: %w", err)
	}

	hash := sha256.Sum256(canonical)
	key := Key(namespace + ":" + hex.EncodeToString(hash[:hashLen/2]))
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// ForGrid returns the key for a field computed over grid.
func (k *Keyer) ForGrid(load stress.Load, grid stress.Grid) (Key, error) {
	return k.Key(load.Geometry.Kind.String(), map[string]any{
		"load": loadInput(load),
		"grid": map[string]any{
			"xmin": grid.XMin, "xmax": grid.XMax,
			"ymin": grid.YMin, "ymax": grid.YMax,
			"zmax": grid.ZMax,
			"nx":   grid.Nx, "ny": grid.Ny, "nz": grid.Nz,
		},
	})
}

// ForProfile returns the key for a depth profile at (x, y). Depth order does
// not matter.
func (k *Keyer) ForProfile(load stress.Load, x, y float64, zs []float64) (Key, error) {
	depths := slices.Clone(zs)
	slices.Sort(depths)
	z := make([]any, len(depths))
	for i, v := range depths {
		z[i] = v
	}
	return k.Key(load.Geometry.Kind.String()+"-profile", map[string]any{
		"load": loadInput(load),
		"x":    x,
		"y":    y,
		"z":    z,
	})
}

func loadInput(load stress.Load) map[string]any {
	g := load.Geometry
	m := map[string]any{"q": load.Q, "kind": g.Kind.String()}
	switch g.Kind {
	case stress.KindCircular:
		m["radius"] = g.Radius
	default:
		m["lx"] = g.Lx
		m["ly"] = g.Ly
	}
	return m
}

// round rounds v to the keyer precision and folds -0 into 0.
func (k *Keyer) round(v float64) float64 {
	scale := math.Pow10(k.precision)
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key and floats are rounded.
func (k *Keyer) canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return k.canonicalizeMap(val)
	case []any:
		return k.canonicalizeSlice(val)
	case float64:
		return json.Marshal(k.round(val))
	case float32:
		return json.Marshal(k.round(float64(val)))
	default:
		return json.Marshal(v)
	}
}

func (k *Keyer) canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, key := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := k.canonicalize(m[key])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func (k *Keyer) canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := k.canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}
