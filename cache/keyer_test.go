package cache

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/surcharge/stress"
)

var keyPattern = regexp.MustCompile(`^[a-z-]+:[0-9a-f]{16}$`)

func testLoad() stress.Load {
	return stress.Load{Q: 100, Geometry: stress.Rectangle(2, 3)}
}

func testGrid() stress.Grid {
	return stress.Grid{XMin: -3, XMax: 3, YMin: -4, YMax: 4, ZMax: 5, Nx: 11, Ny: 11, Nz: 5}
}

func TestKeyer_ForGridDeterministic(t *testing.T) {
	k := NewKeyer()

	a, err := k.ForGrid(testLoad(), testGrid())
	require.NoError(t, err)
	b, err := NewKeyer().ForGrid(testLoad(), testGrid())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Regexp(t, keyPattern, string(a))
	assert.Equal(t, "rectangular", a.Namespace())
	assert.Len(t, a.Hash(), 16)
}

func TestKeyer_Rounding(t *testing.T) {
	k := NewKeyer()
	base, err := k.ForGrid(testLoad(), testGrid())
	require.NoError(t, err)

	nearby := testLoad()
	nearby.Q = 100.0000001
	got, err := k.ForGrid(nearby, testGrid())
	require.NoError(t, err)
	assert.Equal(t, base, got, "differences below the precision must not change the key")

	distinct := testLoad()
	distinct.Q = 100.00001
	got, err = k.ForGrid(distinct, testGrid())
	require.NoError(t, err)
	assert.NotEqual(t, base, got)

	coarse := NewKeyer(WithPrecision(2))
	assert.Equal(t, 2, coarse.Precision())
	a, err := coarse.ForGrid(testLoad(), testGrid())
	require.NoError(t, err)
	b, err := coarse.ForGrid(distinct, testGrid())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKeyer_NegativeZero(t *testing.T) {
	k := NewKeyer()
	g := stress.Grid{XMin: 0, XMax: 1, YMin: 0, YMax: 1, ZMax: 2, Nx: 2, Ny: 2, Nz: 2}
	neg := g
	neg.XMin = math.Copysign(0, -1)
	neg.YMin = -1e-9

	a, err := k.ForGrid(testLoad(), g)
	require.NoError(t, err)
	b, err := k.ForGrid(testLoad(), neg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKeyer_DistinguishesInputs(t *testing.T) {
	k := NewKeyer()
	seen := map[Key]string{}

	add := func(name string, key Key, err error) {
		t.Helper()
		require.NoError(t, err)
		if prev, ok := seen[key]; ok {
			t.Fatalf("%s collides with %s: %s", name, prev, key)
		}
		seen[key] = name
	}

	g := testGrid()
	key, err := k.ForGrid(testLoad(), g)
	add("base", key, err)

	swapped := stress.Load{Q: 100, Geometry: stress.Rectangle(3, 2)}
	key, err = k.ForGrid(swapped, g)
	add("swapped footprint", key, err)

	g2 := g
	g2.Nz = 6
	key, err = k.ForGrid(testLoad(), g2)
	add("finer z", key, err)

	circle := stress.Load{Q: 100, Geometry: stress.Circle(2)}
	key, err = k.ForGrid(circle, g)
	add("circle", key, err)
	assert.Equal(t, "circular", key.Namespace())

	key, err = NewKeyer(WithParam("gauss_order", 12)).ForGrid(testLoad(), g)
	add("gauss order", key, err)
}

func TestKeyer_ForProfileIgnoresDepthOrder(t *testing.T) {
	k := NewKeyer()
	load := stress.Load{Q: 100, Geometry: stress.Circle(2)}

	a, err := k.ForProfile(load, 1, 0, []float64{3, 1, 2})
	require.NoError(t, err)
	b, err := k.ForProfile(load, 1, 0, []float64{1, 2, 3})
	require.NoError(t, err)
	c, err := k.ForProfile(load, 0, 1, []float64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "circular-profile", a.Namespace())
}

func TestKeyer_MapOrderIndependent(t *testing.T) {
	k := NewKeyer()
	a, err := k.Key("custom", map[string]any{"b": 2.0, "a": 1, "c": []any{3.5, "x"}})
	require.NoError(t, err)
	b, err := k.Key("custom", map[string]any{"c": []any{3.5, "x"}, "a": 1, "b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	reordered, err := k.Key("custom", map[string]any{"b": 2.0, "a": 1, "c": []any{"x", 3.5}})
	require.NoError(t, err)
	assert.NotEqual(t, a, reordered, "slice order is significant")
}

func TestKeyer_RejectsUnencodable(t *testing.T) {
	_, err := NewKeyer().Key("custom", map[string]any{"q": math.NaN()})
	assert.Error(t, err)

	_, err = NewKeyer().Key("Bad Namespace", map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  Key
		want error
	}{
		{"rectangular:0123456789abcdef", nil},
		{"circular-profile:fedcba9876543210", nil},
		{"", ErrInvalidKey},
		{"rectangular", ErrInvalidKey},
		{":0123456789abcdef", ErrInvalidKey},
		{"Rect:0123456789abcdef", ErrInvalidKey},
		{"rect/../x:0123456789abcdef", ErrInvalidKey},
		{"rect:0123", ErrInvalidKey},
		{"rect:0123456789ABCDEF", ErrInvalidKey},
		{Key(strings.Repeat("a", MaxKeyLength) + ":0123456789abcdef"), ErrKeyTooLong},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestKey_FileName(t *testing.T) {
	k := Key("rectangular:0123456789abcdef")
	assert.Equal(t, "rectangular_0123456789abcdef.npz", k.FileName())
	assert.Equal(t, "rectangular:0123456789abcdef", k.String())
}
