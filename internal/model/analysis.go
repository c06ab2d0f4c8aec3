package model

import (
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"

	"github.com/valueprobe/backend/internal/constant"
)

// AnalysisResult is one computed analysis for one probe run. It is written
// exclusively by the external compute workers; this backend only reads it.
type AnalysisResult struct {
	bun.BaseModel `bun:"table:analysis_results,alias:ar" json:"-" msgpack:"-"`

	ID           string `bun:",pk" json:"id"`
	RunID        string `json:"runId"`
	Status       string `json:"status"`
	AnalysisType string `json:"analysisType"`
	DurationMs   int64  `json:"durationMs"`

	CreatedAt time.Time `json:"createdAt"`
	// ComputedAt stays null until the analysis reaches a terminal status.
	ComputedAt null.Time `json:"computedAt" swaggertype:"string"`

	PerModel               map[string]*PerModelStats `bun:"per_model,type:jsonb" json:"perModel"`
	VisualizationData      *VisualizationData        `bun:"visualization_data,type:jsonb" json:"visualizationData"`
	MostContestedScenarios []*ContestedScenario      `bun:"most_contested_scenarios,type:jsonb" json:"mostContestedScenarios"`
	Warnings               []*AnalysisWarning        `bun:"warnings,type:jsonb" json:"warnings"`
}

// IsTerminal reports whether the analysis has reached a state in which the
// compute workers will not touch it again (short of an explicit recompute).
func (r *AnalysisResult) IsTerminal() bool {
	switch r.Status {
	case constant.AnalysisStatusCurrent, constant.AnalysisStatusFailed, constant.AnalysisStatusStale:
		return true
	}
	return false
}

type PerModelStats struct {
	SampleSize int                    `json:"sampleSize"`
	Values     map[string]*ValueStats `json:"values"`
	Overall    *ModelSummary          `json:"overall"`
}

type ValueStats struct {
	// WinRate = prioritized / (prioritized + deprioritized); neutral outcomes
	// are excluded from the denominator.
	WinRate            float64             `json:"winRate"`
	ConfidenceInterval *ConfidenceInterval `json:"confidenceInterval"`
	Count              *ValueCount         `json:"count"`
}

type ValueCount struct {
	Prioritized   int `json:"prioritized"`
	Deprioritized int `json:"deprioritized"`
	Neutral       int `json:"neutral"`
}

// Battles is the win-rate denominator.
func (c *ValueCount) Battles() int {
	return c.Prioritized + c.Deprioritized
}

type ConfidenceInterval struct {
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Level  float64 `json:"level"`
	Method string  `json:"method"`
}

// ModelSummary carries descriptive statistics over a model's per-transcript
// scores, as produced by the compute workers.
type ModelSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type VisualizationData struct {
	// DecisionDistribution maps modelId -> decision option (1..5) -> count.
	DecisionDistribution map[string]map[int]int `json:"decisionDistribution"`

	// ModelScenarioMatrix maps modelId -> scenarioId -> mean decision.
	ModelScenarioMatrix map[string]map[string]float64 `json:"modelScenarioMatrix"`

	// ScenarioDimensions maps a dimension name (e.g. "stakes") to the set of
	// dimension values present in the scenario set.
	ScenarioDimensions map[string][]string `json:"scenarioDimensions"`
}

// ContestedScenario is a scenario with high variance in model decisions,
// indicating disagreement between the probed models.
type ContestedScenario struct {
	ScenarioID   string            `json:"scenarioId"`
	ScenarioName string            `json:"scenarioName"`
	Variance     float64           `json:"variance"`
	Dimensions   map[string]string `json:"dimensions,omitempty"`
	// Decisions maps modelId -> the decision option the model took.
	Decisions map[string]int `json:"decisions,omitempty"`
}

type AnalysisWarning struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}
