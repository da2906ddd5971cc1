package usecase

import (
	"context"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/macrolens/foodengine/internal/domain"
)

// DefaultLanguage is reported for queries not detected as the source language
const DefaultLanguage = "en"

// maxProviderQueryLength caps the text sent upstream
const maxProviderQueryLength = 100

// QueryPreprocessor detects and translates the query language and cleans
// product titles before they are sent to providers
type QueryPreprocessor struct {
	translator         domain.Translator
	enableDebugLogging bool
}

// Compiled regex patterns for query preprocessing
var (
	// Matches size/quantity patterns like "128 fl oz", "12 oz", "1.5 liter", "2 lb"
	sizeQuantityPattern = regexp.MustCompile(`\b\d+\.?\d*\s*(fl\s*)?oz\b|\b\d+\.?\d*\s*(fl\s*)?ounces?\b|\b\d+\.?\d*\s*lbs?\b|\b\d+\.?\d*\s*pounds?\b|\b\d+\.?\d*\s*ml\b|\b\d+\.?\d*\s*liters?\b|\b\d+\.?\d*\s*gallons?\b|\b\d+\.?\d*\s*quarts?\b|\b\d+\.?\d*\s*pints?\b|\b\d+\.?\d*\s*kg\b|\b\d+\.?\d*\s*grams?\b|\b\d+\.?\d*\s*g\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6-pack", "24 count", "6 ct", "12 pack cans"
	packCountPattern = regexp.MustCompile(`\b\d+[-\s]*(pack|pk|count|ct)(\s+\w+)?\b|\bpack\s*of\s*\d+\b|\b\d+\s*cans?\b|\b\d+\s*bottles?\b|\b\d+\s*pouches?\b|\b\d+\s*bars?\b|\b\d+\s*pieces?\b`)

	// Matches standalone numbers with no unit (e.g., ", 128", "- 12")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\d+\.?\d*\s*[,\-]`)

	// Orphaned punctuation left behind by the removals above
	lonePunctuationPattern     = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	trailingPunctuationPattern = regexp.MustCompile(`[,\-;:]+\s*$`)
	leadingPunctuationPattern  = regexp.MustCompile(`^\s*[,\-;:]+`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// noiseWords to remove from queries (marketing terms, generic descriptors)
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"value":     true,
	"family":    true,
	"bonus":     true,
	"new":       true,
	"improved":  true,
	"premium":   true,
	"select":    true,
	"choice":    true,
	"quality":   true,
	"best":      true,
	"great":     true,
	"delicious": true,
	"tasty":     true,
	"favorite":  true,
	"special":   true,

	// Size descriptors
	"size":   true,
	"large":  true,
	"medium": true,
	"small":  true,
	"mini":   true,
	"jumbo":  true,
	"giant":  true,
	"big":    true,
	"snack":  true,
	"single": true,
	"double": true,
	"triple": true,

	// Packaging terms
	"package": true,
	"box":     true,
	"bag":     true,
	"bottle":  true,
	"can":     true,
	"jar":     true,
	"tub":     true,
	"carton":  true,
	"sleeve":  true,
	"pouch":   true,
	"roll":    true,
	"tube":    true,

	// Generic food terms that don't help narrow down
	"food":    true,
	"item":    true,
	"product": true,
	"brand":   true,
}

// NewQueryPreprocessor creates a new query preprocessor. A nil translator
// disables language detection and translation.
func NewQueryPreprocessor(translator domain.Translator, enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		translator:         translator,
		enableDebugLogging: enableDebugLogging,
	}
}

// Detect reports whether text is in the translator's source language
func (p *QueryPreprocessor) Detect(text string) bool {
	if p.translator == nil {
		return false
	}
	return p.translator.IsSourceLanguage(text)
}

// Translate returns the translation of text, or text unchanged when the
// translator fails. The failure is logged and never returned.
func (p *QueryPreprocessor) Translate(ctx context.Context, text string) string {
	if p.translator == nil {
		return text
	}
	translated, err := p.translator.Translate(ctx, text)
	if err != nil {
		log.Printf("[PREPROCESS] translation failed, using original query %q: %v", text, err)
		return text
	}
	if strings.TrimSpace(translated) == "" {
		return text
	}
	return translated
}

// Prepare builds the Query for raw. TranslatedText equals the trimmed raw
// text when no translation applies or translation failed.
func (p *QueryPreprocessor) Prepare(ctx context.Context, raw string) domain.Query {
	text := strings.TrimSpace(raw)
	query := domain.Query{
		RawText:          text,
		DetectedLanguage: DefaultLanguage,
		TranslatedText:   text,
	}

	if p.Detect(text) {
		query.DetectedLanguage = p.translator.SourceLanguage()
		query.TranslatedText = p.Translate(ctx, text)
		query.WasTranslated = query.TranslatedText != text
	}

	if p.enableDebugLogging {
		log.Printf("[PREPROCESS] %q -> %+v", raw, query)
	}
	return query
}

// ProviderText cleans a query for upstream search. Removes size/quantity
// info, pack counts, marketing terms, and normalizes whitespace. If nothing
// survives cleaning the input is returned as is.
func (p *QueryPreprocessor) ProviderText(text string) string {
	original := strings.TrimSpace(text)
	if original == "" {
		return ""
	}

	// Step 1: Remove size/quantity patterns (e.g., "128 fl oz", "1.5 liter")
	cleaned := sizeQuantityPattern.ReplaceAllString(original, " ")

	// Step 2: Remove pack/count patterns (e.g., "12 pack", "pack of 6")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")

	// Step 3: Remove standalone numbers at boundaries
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")

	// Step 4: Remove noise words
	cleaned = removeNoiseWords(cleaned)

	// Step 5: Clean up punctuation that's now orphaned
	cleaned = cleanOrphanedPunctuation(cleaned)

	// Step 6: Normalize whitespace
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		cleaned = original
	}

	// Step 7: Limit query length, cutting at a word boundary when possible
	cleaned = truncateAtWord(cleaned, maxProviderQueryLength)

	if p.enableDebugLogging {
		log.Printf("[PREPROCESS] provider text: %q -> %q", original, cleaned)
	}

	return cleaned
}

// truncateAtWord cuts s to at most limit bytes without splitting a rune,
// backing up to the last space when one falls in the second half
func truncateAtWord(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	s = s[:cut]
	if lastSpace := strings.LastIndex(s, " "); lastSpace > limit/2 {
		s = s[:lastSpace]
	}
	return s
}

// removeNoiseWords removes marketing and generic terms from the query
func removeNoiseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	var kept []string

	for _, word := range words {
		// Clean punctuation from word for checking
		cleanWord := strings.Trim(word, ",.!?;:-'\"")

		if !queryNoiseWords[cleanWord] {
			// Preserve original word (with punctuation)
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation that's now alone (e.g., lone commas)
func cleanOrphanedPunctuation(s string) string {
	result := lonePunctuationPattern.ReplaceAllString(s, " ")
	// Periods are kept, they may end an abbreviation
	result = trailingPunctuationPattern.ReplaceAllString(result, "")
	return leadingPunctuationPattern.ReplaceAllString(result, "")
}
