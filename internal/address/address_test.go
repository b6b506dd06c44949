package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilePathForms(t *testing.T) {
	canonical := "/data/DAZ 3D/Genesis 8/Female/Genesis8Female.dsf"

	for name, raw := range map[string]string{
		"foreslash":       "/data/DAZ 3D/Genesis 8/Female/Genesis8Female.dsf",
		"backslash":       `\data\DAZ 3D\Genesis 8\Female\Genesis8Female.dsf`,
		"percent-encoded": "/data/DAZ%203D/Genesis%208/Female/Genesis8Female.dsf",
		"no leading sep":  "data/DAZ 3D/Genesis 8/Female/Genesis8Female.dsf",
	} {
		t.Run(name, func(t *testing.T) {
			u, err := Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, canonical, u.FilePath)
			assert.Empty(t, u.AssetID)
			assert.Empty(t, u.NodeName)
		})
	}
}

func TestParseFragment(t *testing.T) {
	u, err := Parse("/data/Vendor/Figure.dsf#hip")
	require.NoError(t, err)
	assert.Equal(t, "/data/Vendor/Figure.dsf", u.FilePath)
	assert.Equal(t, "hip", u.AssetID)
	assert.True(t, u.HasFragment())
}

func TestParseFragmentOnly(t *testing.T) {
	u, err := Parse("#lThighBend")
	require.NoError(t, err)
	assert.False(t, u.HasFilePath())
	assert.Equal(t, "lThighBend", u.AssetID)
}

func TestParseNodeNameAndPropertyPath(t *testing.T) {
	u, err := Parse("hip:/data/Vendor/Figure.dsf#hip?rotation/y")
	require.NoError(t, err)
	assert.Equal(t, "hip", u.NodeName)
	assert.Equal(t, "/data/Vendor/Figure.dsf", u.FilePath)
	assert.Equal(t, "hip", u.AssetID)
	assert.Equal(t, []string{"rotation", "y"}, u.PropertyPath)
}

func TestParsePropertyPathWithoutFragment(t *testing.T) {
	u, err := Parse("/data/Vendor/Figure.dsf?asset_info/type")
	require.NoError(t, err)
	assert.Equal(t, "/data/Vendor/Figure.dsf", u.FilePath)
	assert.False(t, u.HasFragment())
	assert.Equal(t, []string{"asset_info", "type"}, u.PropertyPath)
}

func TestParseNormalizesDotSegments(t *testing.T) {
	u, err := Parse("/data/Vendor/./Props/../Figure.dsf#root")
	require.NoError(t, err)
	assert.Equal(t, "/data/Vendor/Figure.dsf", u.FilePath)
}

func TestParseRejects(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":              "",
		"whitespace":         "   ",
		"separator fragment": "/data/File.dsf#bad/fragment",
		"escapes root":       "/../outside.dsf",
		"nested escape":      "/data/../../outside.dsf",
		"nothing addressed":  "#",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	urls := []string{
		"/data/Vendor/Figure.dsf",
		"/data/DAZ 3D/Genesis 8/Female.dsf#Genesis8Female",
		"hip:/data/Vendor/Figure.dsf#hip?rotation/y",
		"/data/Vendor/Figure.dsf?asset_info/type",
		"#fragment-only",
	}
	for _, raw := range urls {
		t.Run(raw, func(t *testing.T) {
			u, err := Parse(raw)
			require.NoError(t, err)

			again, err := Parse(u.String())
			require.NoError(t, err)
			assert.True(t, u.Equal(again), "%q round-tripped to %q", raw, u.String())
		})
	}
}

func TestEqual(t *testing.T) {
	a, err := Parse("/data/Vendor/Figure.dsf#hip")
	require.NoError(t, err)
	b, err := Parse(`\data\Vendor\Figure.dsf#hip`)
	require.NoError(t, err)
	c, err := Parse("/data/Vendor/Figure.dsf#chest")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestWithFilePath(t *testing.T) {
	u, err := Parse("#hip")
	require.NoError(t, err)

	anchored := u.WithFilePath("/scenes/MyScene.duf")
	assert.Equal(t, "/scenes/MyScene.duf", anchored.FilePath)
	assert.Equal(t, "hip", anchored.AssetID)
	assert.False(t, u.HasFilePath(), "receiver must be unchanged")
}
