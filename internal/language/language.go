package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// words maps English language names to tags for inputs x/text cannot parse.
var words = map[string]language.Tag{
	"english":    language.English,
	"spanish":    language.Spanish,
	"french":     language.French,
	"german":     language.German,
	"italian":    language.Italian,
	"portuguese": language.Portuguese,
	"japanese":   language.Japanese,
	"korean":     language.Korean,
	"chinese":    language.Chinese,
	"russian":    language.Russian,
	"arabic":     language.Arabic,
	"hindi":      language.Hindi,
	"dutch":      language.Dutch,
	"polish":     language.Polish,
	"swedish":    language.Swedish,
	"danish":     language.Danish,
	"norwegian":  language.Norwegian,
	"finnish":    language.Finnish,
	"romanian":   language.Romanian,
	"hungarian":  language.Hungarian,
	"greek":      language.Greek,
	"turkish":    language.Turkish,
	"ukrainian":  language.Ukrainian,
	"czech":      language.Czech,
	// ISO 639-2/B bibliographic codes.
	"ger": language.German,
	"fre": language.French,
	"dut": language.Dutch,
	"chi": language.Chinese,
	"rum": language.Romanian,
	"gre": language.Greek,
	"cze": language.Czech,
}

// Resolve parses a tag, ISO 639-2 code, or English language name.
func Resolve(input string) (language.Tag, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return language.Und, fmt.Errorf("language is required")
	}
	if tag, ok := words[strings.ToLower(trimmed)]; ok {
		return tag, nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, fmt.Errorf("unrecognized language %q: %w", input, err)
	}
	if tag == language.Und {
		return language.Und, fmt.Errorf("unrecognized language %q", input)
	}
	return tag, nil
}

// ISO2 returns the two letter base language code for tag, or the base
// subtag when no two letter form exists.
func ISO2(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// DisplayName returns the English name for tag, e.g. "Romanian".
func DisplayName(tag language.Tag) string {
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(tag.String())
}

// Normalize resolves input and returns its ISO 639-1 code. Unrecognized
// input yields "".
func Normalize(input string) string {
	tag, err := Resolve(input)
	if err != nil {
		return ""
	}
	return ISO2(tag)
}
