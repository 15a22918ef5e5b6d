package model

import "strings"

// Severity classifies how damaging an inconsistency is.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Rank returns the sort rank of the severity: Critical(0) < High(1) <
// Medium(2) < Low(3). Unknown values rank with Medium.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 2
	}
}

// NormalizeSeverity maps a free-text severity label onto one of the four
// recognized levels. Matching is case-insensitive; anything unrecognized
// (including the empty string) comes back as Medium, since the model's
// categorical vocabulary is not perfectly reliable.
func NormalizeSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// Finding is one detected inconsistency.
type Finding struct {
	// Type is the model's free-text category label, e.g. "Numerical conflict".
	Type string `json:"type"`

	// Slides lists the 1-based indices of the slides involved, ascending.
	// Always non-empty; every index exists in the analyzed deck.
	Slides []int `json:"slides"`

	// Description explains the inconsistency in context.
	Description string `json:"description"`

	// Evidence holds supporting quotes, each attributable to a cited slide.
	Evidence []string `json:"evidence"`

	Severity Severity `json:"severity"`
}
