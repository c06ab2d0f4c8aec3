package model

// AggregateAnalysisResult is an ephemeral, non-persisted combination of
// multiple per-run analysis results. It carries the full AnalysisResult shape
// (with pooled, volume-weighted statistics in PerModel) plus cross-run
// distribution statistics that are unweighted by run size.
type AggregateAnalysisResult struct {
	AnalysisResult

	RunCount     int      `json:"runCount"`
	SourceRunIDs []string `json:"sourceRunIds"`

	// DecisionStats maps modelId -> cross-run distribution-share statistics
	// per decision option.
	DecisionStats map[string]*ModelDecisionStats `json:"decisionStats"`

	// ValueAggregateStats maps modelId -> cross-run win-rate variability per
	// value. Distinct from the pooled winRate carried in PerModel: the mean
	// here weighs every contributing run equally regardless of its sample
	// size.
	ValueAggregateStats map[string]*ModelValueAggregateStats `json:"valueAggregateStats"`
}

type ModelDecisionStats struct {
	Options map[int]*OptionShareStats `json:"options"`
}

// OptionShareStats describes, for one decision option, how the option's
// per-run share (count / total decisions of that run) varied across runs.
// N is the count of runs that contributed a share sample, not a sample count.
type OptionShareStats struct {
	Mean float64 `json:"mean"`
	Sd   float64 `json:"sd"`
	Sem  float64 `json:"sem"`
	N    int     `json:"n"`
}

type ModelValueAggregateStats struct {
	Values map[string]*WinRateSpread `json:"values"`
}

type WinRateSpread struct {
	WinRateMean float64 `json:"winRateMean"`
	WinRateSd   float64 `json:"winRateSd"`
	WinRateSem  float64 `json:"winRateSem"`
}
