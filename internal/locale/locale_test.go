package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageTable(t *testing.T) {
	langs := Languages()
	assert.Len(t, langs, 55)
	assert.Equal(t, "en", langs[0].Code)

	ur, ok := Lookup("UR")
	require.True(t, ok)
	assert.Equal(t, RTL, ur.Direction)

	hi, ok := Lookup("hi")
	require.True(t, ok)
	assert.Equal(t, LTR, hi.Direction)

	_, ok = Lookup("tlh")
	assert.False(t, ok)
}

func TestResolverOrder(t *testing.T) {
	r, err := NewResolver("en")
	require.NoError(t, err)

	assert.Equal(t, "hi", r.Resolve("hi", "fr-FR,fr;q=0.9").Code, "explicit override wins")
	assert.Equal(t, "fr", r.Resolve("", "fr-FR,fr;q=0.9,en;q=0.5").Code)
	assert.Equal(t, "ar", r.Resolve("", "ar-SA").Code)
	assert.Equal(t, "de", r.Resolve("not a tag!!", "de").Code, "invalid override falls through")
	assert.Equal(t, "en", r.Resolve("", "").Code)
	assert.Equal(t, "en", r.Resolve("", "xx-unknown").Code)
}

func TestResolverCustomDefault(t *testing.T) {
	r, err := NewResolver("hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", r.Default().Code)
	assert.Equal(t, "hi", r.Resolve("", "").Code)

	_, err = NewResolver("klingon")
	assert.Error(t, err)
}
