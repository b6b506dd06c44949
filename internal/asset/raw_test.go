package asset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInt(t *testing.T) {
	for name, tc := range map[string]struct {
		in   any
		want int
		ok   bool
	}{
		"int64":                {in: int64(42), want: 42, ok: true},
		"int":                  {in: 7, want: 7, ok: true},
		"whole float":          {in: float64(12), want: 12, ok: true},
		"negative whole float": {in: float64(-3), want: -3, ok: true},
		"fractional float":     {in: 2.5, ok: false},
		"string":               {in: "12", ok: false},
		"float above int":      {in: math.Ldexp(1, 63), ok: false},
		"float below int":      {in: -math.Ldexp(1, 64), ok: false},
		"infinity":             {in: math.Inf(1), ok: false},
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := toInt(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	f, ok := toFloat(int64(3))
	require.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = toFloat(1.25)
	require.True(t, ok)
	assert.Equal(t, 1.25, f)

	_, ok = toFloat("1.25")
	assert.False(t, ok)
}

func TestValueArrayRejectsHugeCount(t *testing.T) {
	// A count too large for int must read as malformed, not wrap.
	entry := obj(t, `{
		"id": "huge",
		"vertices": {"count": 1e300, "values": [[0,0,0]]}
	}`)

	_, err := valueArray(KindGeometry, entry, nil, "vertices", true)
	assert.ErrorIs(t, err, ErrMalformedGeometry)
}

func TestPickPrefersInstance(t *testing.T) {
	lib := map[string]any{"label": "Library", "name": "shared"}
	inst := map[string]any{"label": "Instance"}

	v, ok := pick(lib, inst, "label")
	require.True(t, ok)
	assert.Equal(t, "Instance", v)

	v, ok = pick(lib, inst, "name")
	require.True(t, ok)
	assert.Equal(t, "shared", v)

	_, ok = pick(lib, inst, "missing")
	assert.False(t, ok)
}
