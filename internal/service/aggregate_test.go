package service

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/valueprobe/backend/internal/constant"
	"github.com/valueprobe/backend/internal/model"
)

func newRunAnalysis(runID string, created time.Time) *model.AnalysisResult {
	return &model.AnalysisResult{
		ID:           runID + "-analysis",
		RunID:        runID,
		Status:       constant.AnalysisStatusCurrent,
		AnalysisType: constant.AnalysisTypeSingleRun,
		CreatedAt:    created,
		ComputedAt:   null.TimeFrom(created.Add(time.Minute)),
		PerModel:     map[string]*model.PerModelStats{},
		VisualizationData: &model.VisualizationData{
			DecisionDistribution: map[string]map[int]int{},
		},
	}
}

func withModel(r *model.AnalysisResult, modelID string, sampleSize int) *model.AnalysisResult {
	r.PerModel[modelID] = &model.PerModelStats{
		SampleSize: sampleSize,
		Values:     map[string]*model.ValueStats{},
	}
	return r
}

func withValue(r *model.AnalysisResult, modelID, valueID string, pri, dep, neu int) *model.AnalysisResult {
	count := &model.ValueCount{Prioritized: pri, Deprioritized: dep, Neutral: neu}
	winRate := 0.0
	if count.Battles() > 0 {
		winRate = float64(pri) / float64(count.Battles())
	}
	r.PerModel[modelID].Values[valueID] = &model.ValueStats{
		WinRate: winRate,
		ConfidenceInterval: &model.ConfidenceInterval{
			Lower:  winRate,
			Upper:  winRate,
			Level:  constant.CILevelDefault,
			Method: constant.CIMethodWilsonScore,
		},
		Count: count,
	}
	return r
}

func withDecisions(r *model.AnalysisResult, modelID string, dist map[int]int) *model.AnalysisResult {
	r.VisualizationData.DecisionDistribution[modelID] = dist
	return r
}

func TestAggregateEmptyInput(t *testing.T) {
	_, err := NewAggregate().Aggregate(nil)
	require.Error(t, err)
}

func TestAggregateMetadata(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := withModel(newRunAnalysis("run-a", base.Add(time.Hour)), "gpt-4", 60)
	b := withModel(newRunAnalysis("run-b", base), "gpt-4", 40)
	a.VisualizationData.ModelScenarioMatrix = map[string]map[string]float64{
		"gpt-4": {"sc-1": 0.5},
	}

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a, b})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(agg.ID, "virtual-"))
	assert.True(t, strings.HasPrefix(agg.RunID, "virtual-"))
	assert.Equal(t, constant.AnalysisStatusCurrent, agg.Status)
	assert.Equal(t, constant.AnalysisTypeAggregate, agg.AnalysisType)
	assert.Zero(t, agg.DurationMs)
	assert.Equal(t, 2, agg.RunCount)
	assert.Equal(t, []string{"run-a", "run-b"}, agg.SourceRunIDs)

	// time range spans the contributing runs
	assert.Equal(t, base, agg.CreatedAt)
	assert.Equal(t, a.ComputedAt.Time, agg.ComputedAt.Time)

	// display-only metadata is carried from the first run
	assert.Equal(t, a.VisualizationData.ModelScenarioMatrix, agg.VisualizationData.ModelScenarioMatrix)
}

func TestAggregatePooledSampleSize(t *testing.T) {
	now := time.Now()
	a := withModel(newRunAnalysis("run-a", now), "gpt-4", 60)
	b := withModel(newRunAnalysis("run-b", now), "gpt-4", 40)

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a, b})
	require.NoError(t, err)

	assert.Equal(t, 100, agg.PerModel["gpt-4"].SampleSize)
}

func TestAggregatePooledVsCrossRunWinRate(t *testing.T) {
	now := time.Now()
	a := withValue(withModel(newRunAnalysis("run-a", now), "gpt-4", 100), "gpt-4", "care", 80, 20, 0)
	b := withValue(withModel(newRunAnalysis("run-b", now), "gpt-4", 10), "gpt-4", "care", 1, 9, 0)
	c := withValue(withModel(newRunAnalysis("run-c", now), "gpt-4", 10), "gpt-4", "care", 5, 5, 0)

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a, b, c})
	require.NoError(t, err)

	// pooled: weighted by battle volume
	pooled := agg.PerModel["gpt-4"].Values["care"]
	require.NotNil(t, pooled)
	assert.InDelta(t, 86.0/120.0, pooled.WinRate, 1e-9)
	assert.Equal(t, 86, pooled.Count.Prioritized)
	assert.Equal(t, 34, pooled.Count.Deprioritized)

	// cross-run: each run is one observation regardless of volume
	spread := agg.ValueAggregateStats["gpt-4"].Values["care"]
	require.NotNil(t, spread)
	mean := (0.8 + 0.1 + 0.5) / 3.0
	assert.InDelta(t, mean, spread.WinRateMean, 1e-9)
	sd := math.Sqrt((math.Pow(0.8-mean, 2) + math.Pow(0.1-mean, 2) + math.Pow(0.5-mean, 2)) / 3.0)
	assert.InDelta(t, sd, spread.WinRateSd, 1e-9)
	assert.InDelta(t, sd/math.Sqrt(3), spread.WinRateSem, 1e-9)

	// a volume-skewed input makes the two means diverge
	assert.Greater(t, math.Abs(pooled.WinRate-spread.WinRateMean), 1e-3)

	// the CI is centered on the cross-run mean and clamped to [0, 1]
	ci := pooled.ConfidenceInterval
	assert.InDelta(t, math.Max(0, mean-constant.CIZScore95*spread.WinRateSem), ci.Lower, 1e-9)
	assert.InDelta(t, math.Min(1, mean+constant.CIZScore95*spread.WinRateSem), ci.Upper, 1e-9)
	assert.Equal(t, constant.CIMethodAggregateSEM, ci.Method)
}

func TestAggregateZeroBattles(t *testing.T) {
	now := time.Now()
	a := withValue(withModel(newRunAnalysis("run-a", now), "gpt-4", 10), "gpt-4", "care", 0, 0, 10)

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a})
	require.NoError(t, err)

	assert.Zero(t, agg.PerModel["gpt-4"].Values["care"].WinRate)
}

func TestAggregateDecisionShares(t *testing.T) {
	now := time.Now()
	a := withDecisions(withModel(newRunAnalysis("run-a", now), "gpt-4", 10), "gpt-4", map[int]int{1: 5, 2: 5})
	// a zero-total distribution is an absent measurement, not a zero one
	b := withDecisions(withModel(newRunAnalysis("run-b", now), "gpt-4", 10), "gpt-4", map[int]int{})
	c := withDecisions(withModel(newRunAnalysis("run-c", now), "gpt-4", 10), "gpt-4", map[int]int{1: 10})

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a, b, c})
	require.NoError(t, err)

	opt1 := agg.DecisionStats["gpt-4"].Options[1]
	require.NotNil(t, opt1)
	assert.Equal(t, 2, opt1.N)
	assert.InDelta(t, 0.75, opt1.Mean, 1e-9)
	assert.InDelta(t, 0.25, opt1.Sd, 1e-9)
	assert.InDelta(t, 0.25/math.Sqrt(2), opt1.Sem, 1e-9)

	// option 2 still gets a sample from every run with a non-zero total
	opt2 := agg.DecisionStats["gpt-4"].Options[2]
	assert.Equal(t, 2, opt2.N)
	assert.InDelta(t, 0.25, opt2.Mean, 1e-9)

	// raw totals are plain sums
	assert.Equal(t, 15, agg.VisualizationData.DecisionDistribution["gpt-4"][1])
	assert.Equal(t, 5, agg.VisualizationData.DecisionDistribution["gpt-4"][2])
}

func TestAggregateSingleRunDegenerate(t *testing.T) {
	now := time.Now()
	a := withValue(withModel(newRunAnalysis("run-a", now), "gpt-4", 50), "gpt-4", "care", 30, 20, 0)

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a})
	require.NoError(t, err)

	spread := agg.ValueAggregateStats["gpt-4"].Values["care"]
	assert.InDelta(t, 0.6, spread.WinRateMean, 1e-9)
	assert.Zero(t, spread.WinRateSd)
	assert.Zero(t, spread.WinRateSem)

	ci := agg.PerModel["gpt-4"].Values["care"].ConfidenceInterval
	assert.InDelta(t, ci.Lower, ci.Upper, 1e-9)
	assert.Equal(t, 1, agg.RunCount)
}

func TestAggregateModelMissingFromSomeRuns(t *testing.T) {
	now := time.Now()
	a := withModel(newRunAnalysis("run-a", now), "gpt-4", 60)
	b := withModel(newRunAnalysis("run-b", now), "claude-3", 40)

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a, b})
	require.NoError(t, err)

	// each model's stats come from its contributing runs only
	assert.Equal(t, 60, agg.PerModel["gpt-4"].SampleSize)
	assert.Equal(t, 40, agg.PerModel["claude-3"].SampleSize)
}

func TestAggregateContestedScenarios(t *testing.T) {
	now := time.Now()
	a := withModel(newRunAnalysis("run-a", now), "gpt-4", 10)
	b := withModel(newRunAnalysis("run-b", now), "gpt-4", 10)

	for i := 0; i < 22; i++ {
		a.MostContestedScenarios = append(a.MostContestedScenarios, &model.ContestedScenario{
			ScenarioID: fmt.Sprintf("sc-%02d", i),
			Variance:   float64(i),
		})
	}
	// same scenario reported by both runs: variance is averaged
	b.MostContestedScenarios = append(b.MostContestedScenarios, &model.ContestedScenario{
		ScenarioID: "sc-21",
		Variance:   11,
	})
	// a tie with sc-20 keeps first-seen order
	b.MostContestedScenarios = append(b.MostContestedScenarios, &model.ContestedScenario{
		ScenarioID: "sc-tie",
		Variance:   20,
	})

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a, b})
	require.NoError(t, err)

	merged := agg.MostContestedScenarios
	require.Len(t, merged, constant.MaxContestedScenarios)

	for i := 1; i < len(merged); i++ {
		assert.GreaterOrEqual(t, merged[i-1].Variance, merged[i].Variance)
	}

	// sc-21 reported as 21 and 11 averages to 16
	idx := -1
	for i, sc := range merged {
		if sc.ScenarioID == "sc-21" {
			idx = i
		}
	}
	require.NotEqual(t, -1, idx)
	assert.InDelta(t, 16.0, merged[idx].Variance, 1e-9)

	// the tie at variance 20: sc-20 was seen first
	var order []string
	for _, sc := range merged {
		if sc.Variance == 20 {
			order = append(order, sc.ScenarioID)
		}
	}
	assert.Equal(t, []string{"sc-20", "sc-tie"}, order)
}

func TestAggregateWarningDedupe(t *testing.T) {
	now := time.Now()
	a := withModel(newRunAnalysis("run-a", now), "gpt-4", 100)
	b := withModel(newRunAnalysis("run-b", now), "gpt-4", 100)
	a.Warnings = []*model.AnalysisWarning{
		{Code: "DATA_GAP", Message: "scenario sc-1 has no transcripts"},
		{Code: "DATA_GAP", Message: "scenario sc-2 has no transcripts"},
	}
	b.Warnings = []*model.AnalysisWarning{
		{Code: "DATA_GAP", Message: "scenario sc-1 has no transcripts"},
		{Code: "TRUNCATED", Message: "scenario sc-1 has no transcripts"},
	}

	agg, err := NewAggregate().Aggregate([]*model.AnalysisResult{a, b})
	require.NoError(t, err)

	require.Len(t, agg.Warnings, 3)
	assert.Equal(t, "DATA_GAP", agg.Warnings[0].Code)
	assert.Equal(t, "scenario sc-1 has no transcripts", agg.Warnings[0].Message)
	assert.Equal(t, "TRUNCATED", agg.Warnings[2].Code)
}
