package constant

const (
	AnalysisStreamName = "valueprobe-analysis"

	// AnalysisRecomputeSubject carries fire-and-forget recompute jobs picked
	// up by the external compute workers. The result is observed later via
	// fetch, never via a reply.
	AnalysisRecomputeSubject = "ANALYSIS.RECOMPUTE"
)
