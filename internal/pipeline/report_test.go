package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deckcheck/internal/model"
)

func TestAggregate_SeverityOrdering(t *testing.T) {
	findings := []model.Finding{
		{Type: "terminology", Slides: []int{4}, Description: "low a", Severity: model.SeverityLow},
		{Type: "numerical", Slides: []int{1}, Description: "critical", Severity: model.SeverityCritical},
		{Type: "logic", Slides: []int{2}, Description: "medium", Severity: model.SeverityMedium},
		{Type: "timeline", Slides: []int{3}, Description: "high", Severity: model.SeverityHigh},
	}

	report := Aggregate(findings, 10, time.Now())

	got := make([]model.Severity, len(report.Inconsistencies))
	for i, f := range report.Inconsistencies {
		got[i] = f.Severity
	}
	assert.Equal(t, []model.Severity{
		model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow,
	}, got)
}

func TestAggregate_TiesKeepReportedOrder(t *testing.T) {
	findings := []model.Finding{
		{Type: "a", Slides: []int{1}, Description: "first high", Severity: model.SeverityHigh},
		{Type: "b", Slides: []int{2}, Description: "second high", Severity: model.SeverityHigh},
	}

	report := Aggregate(findings, 5, time.Now())
	require.Len(t, report.Inconsistencies, 2)
	assert.Equal(t, "first high", report.Inconsistencies[0].Description)
	assert.Equal(t, "second high", report.Inconsistencies[1].Description)
}

func TestAggregate_Statistics(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 5, 0, 0, time.FixedZone("CEST", 2*3600))

	report := Aggregate([]model.Finding{
		{Type: "a", Slides: []int{1}, Description: "x", Severity: model.SeverityLow},
	}, 12, now)

	assert.Equal(t, 12, report.Statistics.TotalSlides)
	assert.Equal(t, 1, report.Statistics.IssuesFound)
	assert.Equal(t, "2026-08-30T12:05:00Z", report.Statistics.AnalysisTime)
}

func TestAggregate_EmptyFindingsSerializeAsArray(t *testing.T) {
	report := Aggregate(nil, 3, time.Now())

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"inconsistencies":[]`)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	findings := []model.Finding{
		{Type: "a", Slides: []int{1}, Description: "low", Severity: model.SeverityLow},
		{Type: "b", Slides: []int{2}, Description: "crit", Severity: model.SeverityCritical},
	}

	Aggregate(findings, 5, time.Now())
	assert.Equal(t, model.SeverityLow, findings[0].Severity)
	assert.Equal(t, "low", findings[0].Description)
}
