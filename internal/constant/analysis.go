package constant

// Analysis status lifecycle: PENDING -> COMPUTING -> {CURRENT | FAILED}.
// An explicit recompute resets the record back to PENDING/COMPUTING.
// STALE marks a record whose run has received new transcripts since it was computed.
const (
	AnalysisStatusPending   = "PENDING"
	AnalysisStatusComputing = "COMPUTING"
	AnalysisStatusCurrent   = "CURRENT"
	AnalysisStatusFailed    = "FAILED"
	AnalysisStatusStale     = "STALE"
)

const (
	AnalysisTypeSingleRun = "SINGLE_RUN"
	AnalysisTypeAggregate = "AGGREGATE"
)

// Confidence interval method tags. Single-run results arrive from the compute
// workers with a Wilson score interval; aggregated results recompute the
// interval from the cross-run SEM and are tagged differently so consumers can
// tell the two apart.
const (
	CIMethodWilsonScore  = "wilson_score"
	CIMethodAggregateSEM = "aggregate_sem"

	CILevelDefault = 0.95

	// CIZScore95 is the two-sided z critical value at the 0.95 level.
	CIZScore95 = 1.96
)

// Decision options are a 1..5 scale recorded per transcript.
const (
	DecisionOptionMin = 1
	DecisionOptionMax = 5
)

// MaxContestedScenarios caps the mostContestedScenarios list, both on
// single-run results from the compute workers and on aggregated results.
const MaxContestedScenarios = 20

const (
	WarningCodeSmallSample    = "SMALL_SAMPLE"
	WarningCodeModerateSample = "MODERATE_SAMPLE"

	// Codes of the two consolidated entries that replace per-model sample
	// size warnings on presentation.
	WarningCodeSampleSizeNotice = "SAMPLE_SIZE_NOTICE"
	WarningCodeSampleSizeModels = "SAMPLE_SIZE_MODELS"

	SmallSampleThreshold    = 25
	ModerateSampleThreshold = 30
)
