package pipeline

import (
	"sort"
	"time"

	"github.com/sells-group/deckcheck/internal/model"
)

// Aggregate ranks findings by severity and wraps them with deck-level
// statistics. The sort is stable so findings of equal severity keep the
// order the model reported them in.
func Aggregate(findings []model.Finding, slideCount int, now time.Time) *model.Report {
	ranked := make([]model.Finding, len(findings))
	copy(ranked, findings)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Severity.Rank() < ranked[j].Severity.Rank()
	})

	return &model.Report{
		Statistics: model.Statistics{
			TotalSlides:  slideCount,
			IssuesFound:  len(ranked),
			AnalysisTime: now.UTC().Format(time.RFC3339),
		},
		Inconsistencies: ranked,
	}
}
