// Package translation provides the dictionary translator behind query
// preprocessing. Text is folded (lower case, no diacritics), phrases are
// substituted before single words, and the dictionary is checked at
// construction so that translating twice changes nothing.
package translation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/macrolens/foodengine/internal/domain"
)

// ErrInvalidDictionary reports a dictionary that would not translate
// idempotently
var ErrInvalidDictionary = errors.New("invalid dictionary")

const detectTokenLimit = 32

type phrase struct {
	from []string
	to   string
}

// Dictionary translates food queries from one source language to English
type Dictionary struct {
	source    string
	phrases   []phrase
	words     map[string]string
	stopWords map[string]bool
	markers   string
}

// Config describes a source language
type Config struct {
	Source string
	// Phrases and Words map source text to English
	Phrases map[string]string
	Words   map[string]string
	// StopWords count as weak evidence of the source language
	StopWords []string
	// Markers are characters only the source language uses
	Markers string
}

// New validates cfg and builds a Dictionary. Keys and values are folded. It
// fails when a translation is empty or yields a token that is itself
// translatable, since a second pass would then change the output.
func New(cfg Config) (*Dictionary, error) {
	d := &Dictionary{
		source:    cfg.Source,
		words:     make(map[string]string, len(cfg.Words)),
		stopWords: make(map[string]bool, len(cfg.StopWords)),
		markers:   cfg.Markers,
	}

	for from, to := range cfg.Words {
		key := normalize(from)
		if strings.Contains(key, " ") || key == "" {
			return nil, fmt.Errorf("%w: word key %q must be a single token", ErrInvalidDictionary, from)
		}
		d.words[key] = normalize(to)
	}

	phraseTokens := make(map[string]bool)
	for from, to := range cfg.Phrases {
		tokens := tokenize(from)
		if len(tokens) < 2 {
			return nil, fmt.Errorf("%w: phrase %q must have at least two tokens", ErrInvalidDictionary, from)
		}
		for _, tok := range tokens {
			phraseTokens[tok] = true
		}
		d.phrases = append(d.phrases, phrase{from: tokens, to: normalize(to)})
	}
	// longest phrases win; ties break alphabetically so matching is stable
	sort.Slice(d.phrases, func(i, j int) bool {
		if len(d.phrases[i].from) != len(d.phrases[j].from) {
			return len(d.phrases[i].from) > len(d.phrases[j].from)
		}
		return strings.Join(d.phrases[i].from, " ") < strings.Join(d.phrases[j].from, " ")
	})

	check := func(from, to string) error {
		if to == "" {
			return fmt.Errorf("%w: %q translates to nothing", ErrInvalidDictionary, from)
		}
		for _, tok := range strings.Fields(to) {
			if _, ok := d.words[tok]; ok {
				return fmt.Errorf("%w: translation of %q contains source word %q", ErrInvalidDictionary, from, tok)
			}
			if phraseTokens[tok] {
				return fmt.Errorf("%w: translation of %q contains phrase token %q", ErrInvalidDictionary, from, tok)
			}
		}
		return nil
	}
	for from, to := range d.words {
		if err := check(from, to); err != nil {
			return nil, err
		}
	}
	for _, p := range d.phrases {
		if err := check(strings.Join(p.from, " "), p.to); err != nil {
			return nil, err
		}
	}

	for _, w := range cfg.StopWords {
		d.stopWords[normalize(w)] = true
	}
	return d, nil
}

// SourceLanguage returns the language code translated from
func (d *Dictionary) SourceLanguage() string {
	return d.source
}

// IsSourceLanguage reports whether text looks like the source language.
// Marker characters decide immediately; otherwise the first tokens are scored,
// two points per dictionary word and one per stop word, and a score of two
// is enough.
func (d *Dictionary) IsSourceLanguage(text string) bool {
	if d.markers != "" && strings.ContainsAny(text, d.markers) {
		return true
	}
	tokens := tokenize(text)
	if len(tokens) > detectTokenLimit {
		tokens = tokens[:detectTokenLimit]
	}
	score := 0
	for _, tok := range tokens {
		switch {
		case d.words[tok] != "":
			score += 2
		case d.stopWords[tok]:
			score++
		}
		if score >= 2 {
			return true
		}
	}
	for _, p := range d.phrases {
		if indexOf(tokens, p.from) >= 0 {
			return true
		}
	}
	return false
}

// Translate folds text and substitutes phrases, then words. Unknown tokens
// pass through, so English input comes back folded but otherwise unchanged.
func (d *Dictionary) Translate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tokens := tokenize(text)
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if p, ok := d.phraseAt(tokens, i); ok {
			out = append(out, p.to)
			i += len(p.from)
			continue
		}
		if to, ok := d.words[tokens[i]]; ok {
			out = append(out, to)
		} else {
			out = append(out, tokens[i])
		}
		i++
	}
	return strings.Join(out, " "), nil
}

func (d *Dictionary) phraseAt(tokens []string, i int) (phrase, bool) {
	for _, p := range d.phrases {
		if hasPrefix(tokens[i:], p.from) {
			return p, true
		}
	}
	return phrase{}, false
}

func hasPrefix(tokens, prefix []string) bool {
	if len(tokens) < len(prefix) {
		return false
	}
	for i := range prefix {
		if tokens[i] != prefix[i] {
			return false
		}
	}
	return true
}

func indexOf(tokens, seq []string) int {
	for i := range tokens {
		if hasPrefix(tokens[i:], seq) {
			return i
		}
	}
	return -1
}

// tokenize folds s and splits it on anything that is not a letter or digit
func tokenize(s string) []string {
	return strings.FieldsFunc(domain.Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(s string) string {
	return strings.Join(tokenize(s), " ")
}
