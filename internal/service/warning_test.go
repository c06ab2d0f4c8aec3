package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valueprobe/backend/internal/constant"
	"github.com/valueprobe/backend/internal/model"
)

func perModelSamples(samples map[string]int) map[string]*model.PerModelStats {
	perModel := map[string]*model.PerModelStats{}
	for modelID, n := range samples {
		perModel[modelID] = &model.PerModelStats{SampleSize: n}
	}
	return perModel
}

func TestConsolidateSmallSamples(t *testing.T) {
	warnings := []*model.AnalysisWarning{
		{Code: constant.WarningCodeSmallSample, Message: "gpt-4 has only 9 samples"},
		{Code: "DATA_GAP", Message: "scenario sc-1 has no transcripts"},
		{Code: constant.WarningCodeSmallSample, Message: "claude-3 has only 20 samples"},
		{Code: constant.WarningCodeModerateSample, Message: "gemini has only 28 samples"},
	}
	perModel := perModelSamples(map[string]int{
		"gpt-4":    9,
		"claude-3": 20,
		"gemini":   28,
		"llama-3":  500,
	})

	out := NewWarning().Consolidate(warnings, perModel, []string{"gpt-4", "claude-3", "gemini", "llama-3"})

	require.Len(t, out, 3)
	assert.Equal(t, "DATA_GAP", out[0].Code)
	assert.Equal(t, "Some models have <25 samples; results may be unstable.", out[1].Message)
	assert.Equal(t, "Models <25: gpt-4 (n=9), claude-3 (n=20)", out[2].Message)
}

func TestConsolidateModerateSamples(t *testing.T) {
	warnings := []*model.AnalysisWarning{
		{Code: constant.WarningCodeModerateSample, Message: "gemini has only 28 samples"},
	}
	perModel := perModelSamples(map[string]int{
		"gemini":  28,
		"llama-3": 500,
	})

	out := NewWarning().Consolidate(warnings, perModel, []string{"gemini", "llama-3"})

	require.Len(t, out, 2)
	assert.Equal(t, "Some models have <30 samples; results may be unstable.", out[0].Message)
	assert.Equal(t, "Models <30: gemini (n=28)", out[1].Message)
}

func TestConsolidatePassthrough(t *testing.T) {
	warnings := []*model.AnalysisWarning{
		{Code: "DATA_GAP", Message: "scenario sc-1 has no transcripts"},
	}
	perModel := perModelSamples(map[string]int{
		"gpt-4": 100,
	})

	out := NewWarning().Consolidate(warnings, perModel, nil)

	assert.Equal(t, warnings, out)
}

func TestConsolidateFallbackOrder(t *testing.T) {
	perModel := perModelSamples(map[string]int{
		"zephyr":   3,
		"claude-3": 20,
	})

	// no explicit order: models enumerate in sorted id order
	out := NewWarning().Consolidate(nil, perModel, nil)

	require.Len(t, out, 2)
	assert.Equal(t, "Models <25: claude-3 (n=20), zephyr (n=3)", out[1].Message)
}
