package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/valueprobe/backend/internal/constant"
	"github.com/valueprobe/backend/internal/model"
)

// Warning rewrites the warning list of an analysis for presentation.
// Compute workers emit one sample size warning per undersized model, which
// gets noisy on runs probing many models at once; this folds them into a
// single notice plus one line enumerating the affected models.
type Warning struct{}

func NewWarning() *Warning {
	return &Warning{}
}

// Consolidate replaces per-model sample size warnings with two synthesized
// entries. The threshold is the strictest one any model falls under: if any
// model has fewer than SmallSampleThreshold samples that threshold is
// reported, otherwise ModerateSampleThreshold when any model falls under
// that one. If no model is undersized the warnings pass through untouched.
//
// modelOrder fixes the enumeration order of the affected models; an empty
// order falls back to sorted model ids.
func (s *Warning) Consolidate(warnings []*model.AnalysisWarning, perModel map[string]*model.PerModelStats, modelOrder []string) []*model.AnalysisWarning {
	threshold, ok := s.threshold(perModel)
	if !ok {
		return warnings
	}

	if len(modelOrder) == 0 {
		modelOrder = lo.Keys(perModel)
		sort.Strings(modelOrder)
	}

	listing := make([]string, 0, len(modelOrder))
	for _, modelID := range modelOrder {
		stats := perModel[modelID]
		if stats == nil || stats.SampleSize >= threshold {
			continue
		}
		listing = append(listing, fmt.Sprintf("%s (n=%d)", modelID, stats.SampleSize))
	}

	consolidated := lo.Filter(warnings, func(w *model.AnalysisWarning, _ int) bool {
		return w.Code != constant.WarningCodeSmallSample && w.Code != constant.WarningCodeModerateSample
	})
	return append(consolidated,
		&model.AnalysisWarning{
			Code:           constant.WarningCodeSampleSizeNotice,
			Message:        fmt.Sprintf("Some models have <%d samples; results may be unstable.", threshold),
			Recommendation: "Collect more samples per model for stable statistics.",
		},
		&model.AnalysisWarning{
			Code:    constant.WarningCodeSampleSizeModels,
			Message: fmt.Sprintf("Models <%d: %s", threshold, strings.Join(listing, ", ")),
		})
}

// threshold picks the reported sample size threshold, or false when every
// model has at least ModerateSampleThreshold samples.
func (s *Warning) threshold(perModel map[string]*model.PerModelStats) (int, bool) {
	small, moderate := false, false
	for _, stats := range perModel {
		if stats == nil {
			continue
		}
		if stats.SampleSize < constant.SmallSampleThreshold {
			small = true
		} else if stats.SampleSize < constant.ModerateSampleThreshold {
			moderate = true
		}
	}
	switch {
	case small:
		return constant.SmallSampleThreshold, true
	case moderate:
		return constant.ModerateSampleThreshold, true
	default:
		return 0, false
	}
}
