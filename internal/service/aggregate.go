package service

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"gopkg.in/guregu/null.v3"

	"github.com/valueprobe/backend/internal/constant"
	"github.com/valueprobe/backend/internal/model"
	"github.com/valueprobe/backend/internal/pkg/observability"
	"github.com/valueprobe/backend/internal/pkg/vperr"
)

// Aggregate combines completed per-run analyses into a single virtual result.
// It is pure computation: no storage, no cache, no messaging.
type Aggregate struct{}

func NewAggregate() *Aggregate {
	return &Aggregate{}
}

// Aggregate merges the given analyses into one AggregateAnalysisResult.
// The first result acts as the template for fields that are structurally
// identical across runs of the same scenario set (scenario matrix,
// scenario dimensions). Returns an error on an empty input.
func (s *Aggregate) Aggregate(results []*model.AnalysisResult) (*model.AggregateAnalysisResult, error) {
	if len(results) == 0 {
		return nil, vperr.ErrInvalidArgument.Msg("no analyses to aggregate")
	}

	start := time.Now()
	defer func() {
		observability.AggregateDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	}()
	observability.AggregateRunCount.WithLabelValues().Observe(float64(len(results)))

	template := results[0]

	perModel := map[string]*model.PerModelStats{}
	decisionStats := map[string]*model.ModelDecisionStats{}
	valueAggregateStats := map[string]*model.ModelValueAggregateStats{}

	modelIDs := collectModelIDs(results)

	for _, modelID := range modelIDs {
		contributing := lo.Filter(results, func(r *model.AnalysisResult, _ int) bool {
			return r.PerModel[modelID] != nil
		})
		if len(contributing) == 0 {
			continue
		}

		sampleSize := lo.SumBy(contributing, func(r *model.AnalysisResult) int {
			return r.PerModel[modelID].SampleSize
		})

		decisionStats[modelID] = s.aggregateDecisionShares(modelID, contributing)

		values, spreads := s.aggregateValues(modelID, contributing)
		valueAggregateStats[modelID] = &model.ModelValueAggregateStats{Values: spreads}

		perModel[modelID] = &model.PerModelStats{
			SampleSize: sampleSize,
			Values:     values,
			Overall:    s.aggregateOverall(modelID, contributing),
		}
	}

	token := ulid.Make().String()

	return &model.AggregateAnalysisResult{
		AnalysisResult: model.AnalysisResult{
			ID:           "virtual-" + token,
			RunID:        "virtual-" + token,
			Status:       constant.AnalysisStatusCurrent,
			AnalysisType: constant.AnalysisTypeAggregate,
			DurationMs:   0,
			CreatedAt:    earliestCreation(results),
			ComputedAt:   latestComputation(results),
			PerModel:     perModel,
			VisualizationData: &model.VisualizationData{
				DecisionDistribution: s.sumDecisionDistributions(modelIDs, results),
				ModelScenarioMatrix:  templateMatrix(template),
				ScenarioDimensions:   templateDimensions(template),
			},
			MostContestedScenarios: s.mergeContestedScenarios(results),
			Warnings:               s.mergeWarnings(results),
		},
		RunCount: len(results),
		SourceRunIDs: lo.Map(results, func(r *model.AnalysisResult, _ int) string {
			return r.RunID
		}),
		DecisionStats:       decisionStats,
		ValueAggregateStats: valueAggregateStats,
	}, nil
}

// aggregateDecisionShares computes the cross-run statistics of each decision
// option's share for one model. Every run that carries a decision
// distribution with a non-zero total contributes one share sample per
// option; a run with a zero total contributes no samples at all, since an
// absent measurement is not a measurement of zero.
func (s *Aggregate) aggregateDecisionShares(modelID string, contributing []*model.AnalysisResult) *model.ModelDecisionStats {
	shares := map[int][]float64{}
	for _, r := range contributing {
		if r.VisualizationData == nil {
			continue
		}
		dist, ok := r.VisualizationData.DecisionDistribution[modelID]
		if !ok {
			continue
		}
		total := 0
		for _, count := range dist {
			total += count
		}
		if total == 0 {
			continue
		}
		for option := constant.DecisionOptionMin; option <= constant.DecisionOptionMax; option++ {
			shares[option] = append(shares[option], float64(dist[option])/float64(total))
		}
	}

	options := map[int]*model.OptionShareStats{}
	for option := constant.DecisionOptionMin; option <= constant.DecisionOptionMax; option++ {
		mean, sd, sem := crossRunStats(shares[option])
		options[option] = &model.OptionShareStats{
			Mean: mean,
			Sd:   sd,
			Sem:  sem,
			N:    len(shares[option]),
		}
	}
	return &model.ModelDecisionStats{Options: options}
}

// aggregateValues produces, for each value the model was probed on, the
// pooled win rate (total wins over total battles across all runs) together
// with the cross-run spread of the per-run win rates. The two deliberately
// differ when runs have unequal volume: the pooled rate weights runs by
// battle count, the spread treats each run as one observation.
func (s *Aggregate) aggregateValues(modelID string, contributing []*model.AnalysisResult) (map[string]*model.ValueStats, map[string]*model.WinRateSpread) {
	valueIDs := map[string]struct{}{}
	for _, r := range contributing {
		for valueID := range r.PerModel[modelID].Values {
			valueIDs[valueID] = struct{}{}
		}
	}

	values := map[string]*model.ValueStats{}
	spreads := map[string]*model.WinRateSpread{}

	for valueID := range valueIDs {
		count := &model.ValueCount{}
		var perRunRates []float64

		for _, r := range contributing {
			vs := r.PerModel[modelID].Values[valueID]
			if vs == nil {
				continue
			}
			count.Prioritized += vs.Count.Prioritized
			count.Deprioritized += vs.Count.Deprioritized
			count.Neutral += vs.Count.Neutral
			perRunRates = append(perRunRates, vs.WinRate)
		}

		pooledRate := 0.0
		if battles := count.Battles(); battles > 0 {
			pooledRate = float64(count.Prioritized) / float64(battles)
		}

		mean, sd, sem := crossRunStats(perRunRates)
		spreads[valueID] = &model.WinRateSpread{
			WinRateMean: mean,
			WinRateSd:   sd,
			WinRateSem:  sem,
		}

		values[valueID] = &model.ValueStats{
			WinRate: pooledRate,
			ConfidenceInterval: &model.ConfidenceInterval{
				Lower:  math.Max(0, mean-constant.CIZScore95*sem),
				Upper:  math.Min(1, mean+constant.CIZScore95*sem),
				Level:  constant.CILevelDefault,
				Method: constant.CIMethodAggregateSEM,
			},
			Count: count,
		}
	}

	return values, spreads
}

// aggregateOverall recomputes the model's summary from the per-run
// summaries: unweighted mean and population spread of the run means, with
// the extremes taken across all runs.
func (s *Aggregate) aggregateOverall(modelID string, contributing []*model.AnalysisResult) *model.ModelSummary {
	withOverall := lo.Filter(contributing, func(r *model.AnalysisResult, _ int) bool {
		return r.PerModel[modelID].Overall != nil
	})
	if len(withOverall) == 0 {
		return nil
	}

	means := lo.Map(withOverall, func(r *model.AnalysisResult, _ int) float64 {
		return r.PerModel[modelID].Overall.Mean
	})
	mean, sd, _ := crossRunStats(means)

	return &model.ModelSummary{
		Mean:   mean,
		StdDev: sd,
		Min: lo.MinBy(withOverall, func(a, b *model.AnalysisResult) bool {
			return a.PerModel[modelID].Overall.Min < b.PerModel[modelID].Overall.Min
		}).PerModel[modelID].Overall.Min,
		Max: lo.MaxBy(withOverall, func(a, b *model.AnalysisResult) bool {
			return a.PerModel[modelID].Overall.Max > b.PerModel[modelID].Overall.Max
		}).PerModel[modelID].Overall.Max,
	}
}

// sumDecisionDistributions adds up raw decision counts per model and option
// across all runs. Unlike the share statistics these are plain totals, so a
// zero-total run simply adds nothing.
func (s *Aggregate) sumDecisionDistributions(modelIDs []string, results []*model.AnalysisResult) map[string]map[int]int {
	totals := map[string]map[int]int{}
	for _, modelID := range modelIDs {
		perOption := map[int]int{}
		for option := constant.DecisionOptionMin; option <= constant.DecisionOptionMax; option++ {
			for _, r := range results {
				if r.VisualizationData == nil {
					continue
				}
				perOption[option] += r.VisualizationData.DecisionDistribution[modelID][option]
			}
		}
		totals[modelID] = perOption
	}
	return totals
}

// mergeContestedScenarios groups contested entries by scenario across runs,
// averages their variance, and keeps the top entries by mean variance. The
// sort is stable so scenarios with equal variance keep their first-seen
// order, and the metadata of an entry comes from the run that reported it
// first.
func (s *Aggregate) mergeContestedScenarios(results []*model.AnalysisResult) []*model.ContestedScenario {
	type group struct {
		first    *model.ContestedScenario
		variance float64
		n        int
	}

	byScenario := map[string]*group{}
	var order []*group

	for _, r := range results {
		for _, sc := range r.MostContestedScenarios {
			g, ok := byScenario[sc.ScenarioID]
			if !ok {
				g = &group{first: sc}
				byScenario[sc.ScenarioID] = g
				order = append(order, g)
			}
			g.variance += sc.Variance
			g.n++
		}
	}

	merged := lo.Map(order, func(g *group, _ int) *model.ContestedScenario {
		return &model.ContestedScenario{
			ScenarioID:   g.first.ScenarioID,
			ScenarioName: g.first.ScenarioName,
			Variance:     g.variance / float64(g.n),
			Dimensions:   g.first.Dimensions,
			Decisions:    g.first.Decisions,
		}
	})

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Variance > merged[j].Variance
	})

	if len(merged) > constant.MaxContestedScenarios {
		merged = merged[:constant.MaxContestedScenarios]
	}
	return merged
}

// mergeWarnings concatenates the warnings of all runs in order, dropping
// later duplicates that repeat an earlier (code, message) pair.
func (s *Aggregate) mergeWarnings(results []*model.AnalysisResult) []*model.AnalysisWarning {
	seen := map[[2]string]struct{}{}
	merged := []*model.AnalysisWarning{}
	for _, r := range results {
		for _, w := range r.Warnings {
			key := [2]string{w.Code, w.Message}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, w)
		}
	}
	return merged
}

// crossRunStats treats each sample as one equally-weighted observation and
// returns the mean, population standard deviation and standard error of the
// mean. A single observation has zero spread; no observations yield zeros
// across the board.
func crossRunStats(samples []float64) (mean, sd, sem float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	mean, _ = stats.Mean(samples)
	sd, _ = stats.StandardDeviationPopulation(samples)
	sem = sd / math.Sqrt(float64(len(samples)))
	return mean, sd, sem
}

// collectModelIDs returns the union of the model ids seen across all runs,
// sorted for deterministic iteration.
func collectModelIDs(results []*model.AnalysisResult) []string {
	set := map[string]struct{}{}
	for _, r := range results {
		for modelID := range r.PerModel {
			set[modelID] = struct{}{}
		}
	}
	modelIDs := lo.Keys(set)
	sort.Strings(modelIDs)
	return modelIDs
}

func earliestCreation(results []*model.AnalysisResult) time.Time {
	earliest := results[0].CreatedAt
	for _, r := range results[1:] {
		if !r.CreatedAt.IsZero() && (earliest.IsZero() || r.CreatedAt.Before(earliest)) {
			earliest = r.CreatedAt
		}
	}
	return earliest
}

func latestComputation(results []*model.AnalysisResult) null.Time {
	var latest null.Time
	for _, r := range results {
		if r.ComputedAt.Valid && (!latest.Valid || r.ComputedAt.Time.After(latest.Time)) {
			latest = r.ComputedAt
		}
	}
	return latest
}

func templateMatrix(template *model.AnalysisResult) map[string]map[string]float64 {
	if template.VisualizationData == nil {
		return nil
	}
	return template.VisualizationData.ModelScenarioMatrix
}

func templateDimensions(template *model.AnalysisResult) map[string][]string {
	if template.VisualizationData == nil {
		return nil
	}
	return template.VisualizationData.ScenarioDimensions
}
