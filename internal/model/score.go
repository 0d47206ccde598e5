package model

// SignalType identifies a diagnostic signal family.
type SignalType string

const (
	SignalCleanliness  SignalType = "cleanliness"
	SignalBiasPresence SignalType = "bias_presence"
	SignalCoverage     SignalType = "coverage"
	SignalDominant     SignalType = "dominant_category"
)

// Severity grades a signal.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Signal is one explainable component of the quality score.
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// Score is the document quality index with its diagnostic signals.
// Index ranges 0-100; higher means cleaner text.
type Score struct {
	Index      int      `json:"index"`
	Confidence string   `json:"confidence"`
	Signals    []Signal `json:"signals"`
}
