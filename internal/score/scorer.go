package score

import (
	"fmt"
	"math"

	"github.com/jmribera/textaudit/internal/model"
)

// Scorer calculates the document quality index and generates signals.
//
// The index is additive: cleanliness (0-50) from priority-weighted finding
// density, bias absence (0-30) from bias-category density, and coverage
// (0-20) from the fraction of pages analyzed without failure.
type Scorer struct{}

// NewScorer creates a new scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

var priorityWeights = map[model.Priority]float64{
	model.PriorityHigh:   3,
	model.PriorityMedium: 2,
	model.PriorityLow:    1,
}

var biasCategories = map[model.Category]bool{
	model.CategoryGenderBias:   true,
	model.CategoryReligionBias: true,
	model.CategoryPoliticsBias: true,
}

// Calculate computes the quality score for a completed report.
func (s *Scorer) Calculate(rep *model.Report) model.Score {
	var signals []model.Signal

	cleanScore, cleanSignal := s.calculateCleanliness(rep)
	signals = append(signals, cleanSignal)

	biasScore, biasSignal := s.calculateBiasAbsence(rep)
	signals = append(signals, biasSignal)

	coverageScore, coverageSignal := s.calculateCoverage(rep)
	signals = append(signals, coverageSignal)

	if dominant := s.detectDominantCategory(rep); dominant.Type != "" {
		signals = append(signals, dominant)
	}

	total := cleanScore + biasScore + coverageScore

	return model.Score{
		Index:      total,
		Confidence: s.determineConfidence(rep, total),
		Signals:    signals,
	}
}

// calculateCleanliness scores priority-weighted finding density (0-50 points).
func (s *Scorer) calculateCleanliness(rep *model.Report) (int, model.Signal) {
	analyzed := analyzedPages(rep)
	if analyzed == 0 {
		return 0, model.Signal{
			Type:        model.SignalCleanliness,
			Severity:    model.SeverityCritical,
			Description: "No pages analyzed",
			Data:        map[string]any{"analyzed_pages": 0},
		}
	}

	var weighted float64
	for _, f := range rep.Findings {
		weighted += priorityWeights[f.Priority]
	}
	density := weighted / float64(analyzed)

	// Full marks at zero density, zero at five weighted findings per page.
	score := int(math.Max(0, 50-density*10))

	severity := model.SeverityInfo
	if density >= 3 {
		severity = model.SeverityCritical
	} else if density >= 1 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalCleanliness,
		Severity:    severity,
		Description: fmt.Sprintf("Weighted finding density: %.2f per page", density),
		Data: map[string]any{
			"findings":       len(rep.Findings),
			"analyzed_pages": analyzed,
			"density":        density,
			"score":          score,
			"formula":        "max(0, 50 - weighted_density * 10)",
		},
	}
}

// calculateBiasAbsence scores the absence of bias findings (0-30 points).
func (s *Scorer) calculateBiasAbsence(rep *model.Report) (int, model.Signal) {
	analyzed := analyzedPages(rep)
	if analyzed == 0 {
		return 0, model.Signal{
			Type:        model.SignalBiasPresence,
			Severity:    model.SeverityWarning,
			Description: "No pages analyzed",
			Data:        map[string]any{"analyzed_pages": 0},
		}
	}

	biasCount := 0
	for _, f := range rep.Findings {
		if biasCategories[f.Category] {
			biasCount++
		}
	}
	density := float64(biasCount) / float64(analyzed)

	score := int(math.Max(0, 30-density*15))

	severity := model.SeverityInfo
	if biasCount > 0 {
		severity = model.SeverityWarning
	}
	if density >= 1 {
		severity = model.SeverityCritical
	}

	return score, model.Signal{
		Type:        model.SignalBiasPresence,
		Severity:    severity,
		Description: fmt.Sprintf("Bias findings: %d across %d pages", biasCount, analyzed),
		Data: map[string]any{
			"bias_findings":  biasCount,
			"analyzed_pages": analyzed,
			"density":        density,
			"score":          score,
			"formula":        "max(0, 30 - bias_density * 15)",
		},
	}
}

// calculateCoverage scores the fraction of requested pages analyzed
// without failure (0-20 points). Degraded pages count half.
func (s *Scorer) calculateCoverage(rep *model.Report) (int, model.Signal) {
	total := len(rep.Pages)
	if total == 0 {
		return 0, model.Signal{
			Type:        model.SignalCoverage,
			Severity:    model.SeverityCritical,
			Description: "Empty page range",
			Data:        map[string]any{"pages": 0},
		}
	}

	var effective float64
	failed := 0
	degraded := 0
	for _, p := range rep.Pages {
		switch {
		case p.Status == model.PageFailed:
			failed++
		case p.Degraded:
			degraded++
			effective += 0.5
		default:
			effective += 1
		}
	}

	ratio := effective / float64(total)
	score := int(ratio * 20)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 1.0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Coverage: %d/%d pages analyzed (%d failed, %d degraded)", total-failed, total, failed, degraded),
		Data: map[string]any{
			"pages":    total,
			"failed":   failed,
			"degraded": degraded,
			"ratio":    ratio,
			"score":    score,
			"formula":  "(ok + degraded*0.5) / pages * 20",
		},
	}
}

// detectDominantCategory signals when one category holds the majority of
// findings, pointing at a systematic issue rather than scattered noise.
func (s *Scorer) detectDominantCategory(rep *model.Report) model.Signal {
	if len(rep.Findings) < 3 {
		return model.Signal{}
	}

	counts := rep.CountByCategory()
	var top model.Category
	topCount := 0
	for cat, n := range counts {
		if n > topCount {
			top, topCount = cat, n
		}
	}

	if topCount*2 <= len(rep.Findings) {
		return model.Signal{}
	}

	return model.Signal{
		Type:        model.SignalDominant,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Category %s holds %d of %d findings", top, topCount, len(rep.Findings)),
		Data: map[string]any{
			"category": string(top),
			"count":    topCount,
			"total":    len(rep.Findings),
		},
	}
}

// determineConfidence grades how much the index can be trusted.
func (s *Scorer) determineConfidence(rep *model.Report, total int) string {
	analyzed := analyzedPages(rep)
	failedShare := 0.0
	if len(rep.Pages) > 0 {
		failedShare = float64(len(rep.FailedPages())) / float64(len(rep.Pages))
	}

	switch {
	case analyzed == 0:
		return "none"
	case failedShare > 0.25:
		return "low"
	case analyzed < 3:
		return "medium"
	default:
		return "high"
	}
}

func analyzedPages(rep *model.Report) int {
	n := 0
	for _, p := range rep.Pages {
		if p.Status == model.PageOK {
			n++
		}
	}
	return n
}
