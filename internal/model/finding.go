package model

// Category classifies a finding into the fixed 6-member taxonomy:
// three bias families and three linguistic-quality families.
type Category string

const (
	CategoryGenderBias   Category = "gender_bias"
	CategoryReligionBias Category = "religion_bias"
	CategoryPoliticsBias Category = "politics_bias"
	CategoryOrthography  Category = "orthography"
	CategoryGrammar      Category = "grammar"
	CategorySemantics    Category = "semantics"
)

// Categories lists the full taxonomy in report order.
func Categories() []Category {
	return []Category{
		CategoryGenderBias,
		CategoryReligionBias,
		CategoryPoliticsBias,
		CategoryOrthography,
		CategoryGrammar,
		CategorySemantics,
	}
}

// Valid reports whether the category belongs to the taxonomy.
func (c Category) Valid() bool {
	switch c {
	case CategoryGenderBias, CategoryReligionBias, CategoryPoliticsBias,
		CategoryOrthography, CategoryGrammar, CategorySemantics:
		return true
	}
	return false
}

// Priority indicates how urgently a finding should be addressed.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether the priority is one of the three allowed values.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Supported document languages. Spanish is the fallback when the
// backend reports nothing usable.
const (
	LanguageSpanish = "es"
	LanguageEnglish = "en"

	DefaultLanguage = LanguageSpanish
)

// SupportedLanguage reports whether lang is one of the languages the
// analysis understands.
func SupportedLanguage(lang string) bool {
	return lang == LanguageSpanish || lang == LanguageEnglish
}

// Finding represents one detected issue on one page.
//
// PDFPage is always stamped by the orchestrator with the page the finding
// was discovered on; backends never set it. PrintedPage is the best-effort
// parse of the printed page label the backend reported, falling back to
// PDFPage.
type Finding struct {
	Category         Category `json:"category"`
	Priority         Priority `json:"priority"`
	OriginalFragment string   `json:"original_fragment"`
	Recommendation   string   `json:"recommendation"`
	PDFPage          int      `json:"pdf_page"`
	PrintedPage      int      `json:"printed_page"`
	DetectedLanguage string   `json:"detected_language"`

	// Rule and Confidence are populated by the heuristic backend only.
	Rule       string  `json:"rule,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
