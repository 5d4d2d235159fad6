package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Turkish", LanguageName("tr"))
	assert.Equal(t, "German", LanguageName("de"))
	assert.Equal(t, "English", LanguageName(" en "))
	assert.Equal(t, "not a language!", LanguageName("not a language!"))
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	assert.Len(t, langs, len(targetCodes))
	assert.Equal(t, Language{Code: "tr", Name: "Turkish"}, langs[0])
	for _, l := range langs {
		assert.NotEmpty(t, l.Name)
		assert.NotEqual(t, l.Code, l.Name)
	}
}
