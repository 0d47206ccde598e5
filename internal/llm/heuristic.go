package llm

import (
	"context"
	"strings"
	"unicode"

	"github.com/jmribera/textaudit/internal/model"
)

// HeuristicBackend implements the Backend interface with local
// text-pattern rules. It is fully deterministic, never touches the
// network, and serves as the offline fallback when no remote backend is
// configured.
type HeuristicBackend struct {
	texts TextExtractor
}

// Term sets for the gender-imbalance rule. Matching is on whole lowercase
// tokens.
var (
	maleCodedTerms = newTermSet(
		"hombre", "hombres", "él", "profesor", "maestro", "niño", "niños",
		"padre", "señor", "alumno", "director",
		"he", "him", "his", "man", "men", "father", "sir",
	)
	femaleCodedTerms = newTermSet(
		"mujer", "mujeres", "ella", "profesora", "maestra", "niña", "niñas",
		"madre", "señora", "alumna", "directora",
		"she", "her", "hers", "woman", "women", "mother", "madam",
	)
)

// Substring term lists for the religion and politics rules.
var (
	religionTerms = []string{
		"iglesia", "dios", "cristian", "católic", "musulm", "biblia", "religios",
		"church", "god", "christian", "muslim", "bible",
	}
	politicsTerms = []string{
		"gobierno", "partido", "izquierda", "derecha", "comunista", "fascista",
		"government", "regime", "leftist", "right-wing", "communist", "fascist",
	}
)

// Spanish and English stopwords used for the naive language vote.
var (
	spanishStopwords = newTermSet("el", "la", "los", "las", "de", "que", "y", "en", "un", "una", "para")
	englishStopwords = newTermSet("the", "and", "of", "to", "in", "a", "is", "that", "for", "with")
)

// NewHeuristicBackend creates a heuristic backend over the given text
// extractor.
func NewHeuristicBackend(texts TextExtractor) *HeuristicBackend {
	return &HeuristicBackend{texts: texts}
}

// Name returns the backend name.
func (b *HeuristicBackend) Name() string {
	return "heuristic"
}

// IsAvailable always reports true; the heuristic backend has no external
// dependencies.
func (b *HeuristicBackend) IsAvailable(ctx context.Context) bool {
	return true
}

// AnalyzePage runs every rule over the extracted page text. Each rule
// contributes zero or one finding.
func (b *HeuristicBackend) AnalyzePage(ctx context.Context, pageBytes []byte, pageNumber int) (*PageResult, error) {
	var text string
	if b.texts != nil {
		text = b.texts.ExtractText(pageBytes)
	}

	result := &PageResult{
		DetectedLanguage: detectLanguage(text),
	}

	if strings.TrimSpace(text) == "" {
		return result, nil
	}

	rules := []func(string) (model.Finding, bool){
		checkGenderImbalance,
		checkReligionTerms,
		checkPoliticsTerms,
		checkDoubleSpaces,
		checkSentenceCase,
		checkLexicalPoverty,
	}

	for _, rule := range rules {
		if f, ok := rule(text); ok {
			result.Findings = append(result.Findings, f)
		}
	}

	return result, nil
}

// checkGenderImbalance flags text whose token set intersects one
// gender-coded term set but not the other.
func checkGenderImbalance(text string) (model.Finding, bool) {
	tokens := tokenSet(text)

	male := intersects(tokens, maleCodedTerms)
	female := intersects(tokens, femaleCodedTerms)
	if male == female {
		return model.Finding{}, false
	}

	return model.Finding{
		Category:         model.CategoryGenderBias,
		Priority:         model.PriorityMedium,
		OriginalFragment: firstWords(text, 10),
		Recommendation:   "Revisar el equilibrio de género en los términos empleados en esta página.",
		Rule:             "gender-term-imbalance",
		Confidence:       0.5,
	}, true
}

func checkReligionTerms(text string) (model.Finding, bool) {
	term, ok := containsAny(text, religionTerms)
	if !ok {
		return model.Finding{}, false
	}
	return model.Finding{
		Category:         model.CategoryReligionBias,
		Priority:         model.PriorityMedium,
		OriginalFragment: term,
		Recommendation:   "Revisar si la referencia religiosa es neutral y pertinente al contenido.",
		Rule:             "religion-keyword",
		Confidence:       0.4,
	}, true
}

func checkPoliticsTerms(text string) (model.Finding, bool) {
	term, ok := containsAny(text, politicsTerms)
	if !ok {
		return model.Finding{}, false
	}
	return model.Finding{
		Category:         model.CategoryPoliticsBias,
		Priority:         model.PriorityMedium,
		OriginalFragment: term,
		Recommendation:   "Revisar si la referencia política es neutral y pertinente al contenido.",
		Rule:             "politics-keyword",
		Confidence:       0.4,
	}, true
}

// checkDoubleSpaces flags consecutive spaces, a common OCR or layout
// artifact.
func checkDoubleSpaces(text string) (model.Finding, bool) {
	if !strings.Contains(text, "  ") {
		return model.Finding{}, false
	}
	return model.Finding{
		Category:         model.CategoryOrthography,
		Priority:         model.PriorityLow,
		OriginalFragment: "espacios dobles",
		Recommendation:   "Eliminar espacios dobles; probable artefacto de maquetación u OCR.",
		Rule:             "double-space",
		Confidence:       0.7,
	}, true
}

// checkSentenceCase flags sentences that start with a lowercase letter.
func checkSentenceCase(text string) (model.Finding, bool) {
	for _, sentence := range strings.Split(text, ".") {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		first := []rune(trimmed)[0]
		if unicode.IsLetter(first) && unicode.IsLower(first) {
			return model.Finding{
				Category:         model.CategoryGrammar,
				Priority:         model.PriorityLow,
				OriginalFragment: firstWords(trimmed, 10),
				Recommendation:   "Iniciar la oración con mayúscula.",
				Rule:             "sentence-initial-lowercase",
				Confidence:       0.6,
			}, true
		}
	}
	return model.Finding{}, false
}

// checkLexicalPoverty flags pages with too little content or too little
// lexical diversity to carry meaning.
func checkLexicalPoverty(text string) (model.Finding, bool) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return model.Finding{}, false
	}

	distinct := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		distinct[tok] = struct{}{}
	}
	diversity := float64(len(distinct)) / float64(len(tokens))

	if len(tokens) >= 10 && diversity >= 1.0/3.0 {
		return model.Finding{}, false
	}

	recommendation := "Contenido insuficiente en la página para un análisis significativo."
	if len(tokens) >= 10 {
		recommendation = "Baja diversidad léxica; revisar repeticiones en el texto."
	}

	return model.Finding{
		Category:         model.CategorySemantics,
		Priority:         model.PriorityLow,
		OriginalFragment: firstWords(text, 10),
		Recommendation:   recommendation,
		Rule:             "lexical-poverty",
		Confidence:       0.5,
	}, true
}

// detectLanguage votes Spanish vs English stopwords; ties and empty text
// fall back to the default language.
func detectLanguage(text string) string {
	tokens := tokenSet(text)

	var es, en int
	for tok := range tokens {
		if _, ok := spanishStopwords[tok]; ok {
			es++
		}
		if _, ok := englishStopwords[tok]; ok {
			en++
		}
	}

	if en > es {
		return model.LanguageEnglish
	}
	return model.DefaultLanguage
}

// Helpers

func newTermSet(terms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// tokenSet lowercases the text and splits it into a set of words,
// stripping surrounding punctuation.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

func intersects(tokens, terms map[string]struct{}) bool {
	for t := range terms {
		if _, ok := tokens[t]; ok {
			return true
		}
	}
	return false
}

// containsAny reports the first term appearing as a substring of the
// lowercased text.
func containsAny(text string, terms []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
