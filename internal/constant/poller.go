package constant

import "time"

const (
	// AnalysisWatchInterval is the refresh cadence while the underlying
	// analysis reports PENDING or COMPUTING.
	AnalysisWatchInterval = 3 * time.Second

	// RecomputePollInterval is the fast-poll cadence entered right after an
	// explicit recompute trigger.
	RecomputePollInterval = time.Second

	// RecomputePollMaxAttempts bounds the fast-poll budget. Exhausting it is
	// not an error; the observer falls back to the status-driven cadence.
	RecomputePollMaxAttempts = 10
)

const (
	CacheSep = "#"

	AnalysisCacheExpiry = 24 * time.Hour
)

// FetchConcurrency limits concurrent per-run cache lookups when resolving an
// aggregation input set.
const FetchConcurrency = 8
