package translator

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a selectable translation target.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var targetCodes = []string{"tr", "de", "en", "fr", "es", "it", "pt", "nl", "pl", "ru", "ja", "ko", "zh", "ar"}

// Languages lists the offered targets with their English names.
func Languages() []Language {
	ret := make([]Language, 0, len(targetCodes))
	for _, code := range targetCodes {
		ret = append(ret, Language{Code: code, Name: LanguageName(code)})
	}
	return ret
}

// LanguageName returns the English name of a BCP 47 code ("tr" -> "Turkish").
// Unknown codes are returned unchanged.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}
