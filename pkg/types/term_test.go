package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTermMeta(t *testing.T) {
	m := DefaultTermMeta()
	assert.Len(t, m, 5)
	assert.Equal(t, "", m[FieldHeadline])
	assert.Equal(t, "", m[FieldIntroText])
	assert.Equal(t, "", m[FieldLayout])
	assert.Equal(t, "0", m[FieldDisplayTitle])
	assert.Equal(t, "0", m[FieldDisplayDescription])

	m[FieldHeadline] = "changed"
	assert.Equal(t, "", DefaultTermMeta()[FieldHeadline], "defaults must be a fresh copy")
}

func TestTermMetaClone(t *testing.T) {
	var nilMeta TermMeta
	clone := nilMeta.Clone()
	assert.NotNil(t, clone)
	assert.Empty(t, clone)

	orig := TermMeta{FieldHeadline: "Hi"}
	clone = orig.Clone()
	clone[FieldHeadline] = "Bye"
	assert.Equal(t, "Hi", orig[FieldHeadline])
}

func TestTaxonomyLabel(t *testing.T) {
	assert.Equal(t, "Category", Taxonomy{Name: "category", SingularLabel: "Category"}.Label())
	assert.Equal(t, "genre", Taxonomy{Name: "genre"}.Label())
}
