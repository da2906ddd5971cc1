package translation

import (
	"fmt"
	"sort"
)

// builtins are the dictionaries shipped with the service, by source
// language code
var builtins = map[string]func() (*Dictionary, error){
	SpanishCode: NewSpanish,
}

// ForLanguage builds the built-in dictionary translating from code to
// English
func ForLanguage(code string) (*Dictionary, error) {
	build, ok := builtins[code]
	if !ok {
		return nil, fmt.Errorf("no dictionary for source language %q (have %v)", code, Languages())
	}
	return build()
}

// Supported reports whether a built-in dictionary exists for code
func Supported(code string) bool {
	_, ok := builtins[code]
	return ok
}

// Languages lists the source languages with a built-in dictionary
func Languages() []string {
	codes := make([]string, 0, len(builtins))
	for code := range builtins {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
