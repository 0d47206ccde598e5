package llm

import (
	"context"
	"testing"

	"github.com/jmribera/textaudit/internal/model"
)

// stubTextExtractor returns canned text regardless of input bytes.
type stubTextExtractor struct {
	text string
}

func (s *stubTextExtractor) ExtractText(doc []byte) string {
	return s.text
}

func findingsByCategory(findings []model.Finding, cat model.Category) []model.Finding {
	var out []model.Finding
	for _, f := range findings {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

func analyzeText(t *testing.T, text string) *PageResult {
	t.Helper()
	backend := NewHeuristicBackend(&stubTextExtractor{text: text})
	result, err := backend.AnalyzePage(context.Background(), []byte("%PDF-stub"), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	return result
}

func TestHeuristic_GenderImbalance_MaleOnly(t *testing.T) {
	result := analyzeText(t, "he him his man")

	gender := findingsByCategory(result.Findings, model.CategoryGenderBias)
	if len(gender) != 1 {
		t.Fatalf("expected exactly 1 gender finding, got %d", len(gender))
	}
	if gender[0].Rule != "gender-term-imbalance" {
		t.Errorf("unexpected rule: %s", gender[0].Rule)
	}
	if gender[0].Confidence <= 0 || gender[0].Confidence > 1 {
		t.Errorf("confidence out of range: %f", gender[0].Confidence)
	}
}

func TestHeuristic_GenderImbalance_Balanced(t *testing.T) {
	result := analyzeText(t, "los profesores y las profesoras trabajan juntos: he and she, man and woman, padre y madre")

	gender := findingsByCategory(result.Findings, model.CategoryGenderBias)
	if len(gender) != 0 {
		t.Errorf("expected zero gender findings for balanced text, got %d", len(gender))
	}
}

func TestHeuristic_ShortTextYieldsSemanticsFinding(t *testing.T) {
	result := analyzeText(t, "texto muy corto")

	semantics := findingsByCategory(result.Findings, model.CategorySemantics)
	if len(semantics) != 1 {
		t.Fatalf("expected 1 semantics finding for short text, got %d", len(semantics))
	}
}

func TestHeuristic_LowLexicalDiversity(t *testing.T) {
	// 12 tokens, 2 distinct: diversity 1/6 < 1/3.
	result := analyzeText(t, "uno dos uno dos uno dos uno dos uno dos uno dos")

	semantics := findingsByCategory(result.Findings, model.CategorySemantics)
	if len(semantics) != 1 {
		t.Fatalf("expected 1 semantics finding for repetitive text, got %d", len(semantics))
	}
}

func TestHeuristic_DoubleSpace(t *testing.T) {
	result := analyzeText(t, "Este documento contiene  un error de espaciado visible entre dos palabras cualquiera del texto.")

	ortho := findingsByCategory(result.Findings, model.CategoryOrthography)
	if len(ortho) != 1 {
		t.Fatalf("expected 1 orthography finding for double space, got %d", len(ortho))
	}
}

func TestHeuristic_SentenceInitialLowercase(t *testing.T) {
	result := analyzeText(t, "La primera oración es correcta según las normas habituales vigentes. la segunda comienza en minúscula y debería corregirse siempre.")

	grammar := findingsByCategory(result.Findings, model.CategoryGrammar)
	if len(grammar) != 1 {
		t.Fatalf("expected 1 grammar finding for lowercase sentence start, got %d", len(grammar))
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	text := "he him his man  minúscula corta"

	first := analyzeText(t, text)
	second := analyzeText(t, text)

	if len(first.Findings) != len(second.Findings) {
		t.Fatalf("expected identical finding count, got %d and %d", len(first.Findings), len(second.Findings))
	}
	for i := range first.Findings {
		if first.Findings[i].Category != second.Findings[i].Category {
			t.Errorf("finding %d category differs: %s vs %s", i, first.Findings[i].Category, second.Findings[i].Category)
		}
	}
}

func TestHeuristic_EmptyText(t *testing.T) {
	result := analyzeText(t, "")

	if len(result.Findings) != 0 {
		t.Errorf("expected zero findings for empty text, got %d", len(result.Findings))
	}
	if result.DetectedLanguage != model.DefaultLanguage {
		t.Errorf("expected default language for empty text, got %s", result.DetectedLanguage)
	}
}

func TestHeuristic_LanguageDetection(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "spanish stopwords",
			text: "el análisis de la página muestra que el texto es correcto en general y no presenta problemas",
			want: model.LanguageSpanish,
		},
		{
			name: "english stopwords",
			text: "the analysis of the page shows that the text is correct in general and has no problems",
			want: model.LanguageEnglish,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzeText(t, tt.text)
			if result.DetectedLanguage != tt.want {
				t.Errorf("expected language %s, got %s", tt.want, result.DetectedLanguage)
			}
		})
	}
}

func TestHeuristic_IsAvailable(t *testing.T) {
	backend := NewHeuristicBackend(&stubTextExtractor{})
	if !backend.IsAvailable(context.Background()) {
		t.Error("heuristic backend must always be available")
	}
	if backend.Name() != "heuristic" {
		t.Errorf("unexpected name: %s", backend.Name())
	}
}
