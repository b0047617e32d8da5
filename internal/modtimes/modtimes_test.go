package modtimes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufonorm/internal/plist"
)

func TestStoreReadRoundTrip(t *testing.T) {
	cache := Cache{}
	cache.Set("A_.glif", time.Unix(1700000000, 340_000_000))
	cache.Set("B_.glif", time.Unix(1700000005, 0))

	lib := plist.Dict{}
	Store(lib, cache, "1.0.0")

	loaded := Read(lib, "1.0.0")
	require.Len(t, loaded, 2)
	assert.Equal(t, 1700000000.3, loaded["A_.glif"])
	assert.Equal(t, 1700000005.0, loaded["B_.glif"])
}

func TestStoreFormat(t *testing.T) {
	cache := Cache{}
	cache.Set("b.glif", time.Unix(100, 0))
	cache.Set("a.glif", time.Unix(200, 500_000_000))

	lib := plist.Dict{}
	Store(lib, cache, "1.0.0")

	text, ok := lib[LibKey].(plist.String)
	require.True(t, ok, "cache must be stored as a plist string")
	assert.Equal(t, "version: 1.0.0\n200.5 a.glif\n100.0 b.glif", string(text))
}

func TestReadVersionMismatchDiscardsCache(t *testing.T) {
	lib := plist.Dict{
		LibKey: plist.String("version: 0.9.0\n100.0 a.glif"),
	}
	assert.Empty(t, Read(lib, "1.0.0"))
}

func TestReadMissingEntry(t *testing.T) {
	assert.Empty(t, Read(plist.Dict{}, "1.0.0"))
}

func TestReadSkipsMalformedLines(t *testing.T) {
	lib := plist.Dict{
		LibKey: plist.String("version: 1.0.0\nnot-a-number a.glif\nnospacehere\n100.5 b.glif"),
	}
	cache := Read(lib, "1.0.0")
	require.Len(t, cache, 1)
	assert.Equal(t, 100.5, cache["b.glif"])
}

func TestReadKeepsSpacesInFileNames(t *testing.T) {
	lib := plist.Dict{
		LibKey: plist.String("version: 1.0.0\n100.0 my glyph.glif"),
	}
	cache := Read(lib, "1.0.0")
	assert.Equal(t, 100.0, cache["my glyph.glif"])
}

func TestNeedsRefresh(t *testing.T) {
	cache := Cache{}
	stamp := time.Unix(1700000000, 340_000_000)
	cache.Set("a.glif", stamp)

	assert.False(t, cache.NeedsRefresh("a.glif", stamp))
	// Sub-0.1s jitter rounds to the same stored value.
	assert.False(t, cache.NeedsRefresh("a.glif", time.Unix(1700000000, 320_000_000)))
	// A refresh is needed for any difference at the stored precision,
	// including times older than the cached one.
	assert.True(t, cache.NeedsRefresh("a.glif", time.Unix(1700000001, 0)))
	assert.True(t, cache.NeedsRefresh("a.glif", time.Unix(1600000000, 0)))
	assert.True(t, cache.NeedsRefresh("unknown.glif", stamp))
}

func TestDelete(t *testing.T) {
	cache := Cache{}
	cache.Set("a.glif", time.Unix(100, 0))
	cache.Delete("a.glif")
	assert.True(t, cache.NeedsRefresh("a.glif", time.Unix(100, 0)))
}
