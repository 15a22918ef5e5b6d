package model

// Statistics summarizes an analysis run.
type Statistics struct {
	TotalSlides int `json:"total_slides"`
	IssuesFound int `json:"issues_found"`

	// AnalysisTime is the report generation time, RFC 3339 UTC.
	AnalysisTime string `json:"analysis_time"`
}

// Report is the terminal artifact of the pipeline: findings sorted by
// severity rank plus summary statistics. Written once, never updated.
type Report struct {
	Statistics      Statistics `json:"statistics"`
	Inconsistencies []Finding  `json:"inconsistencies"`
}
