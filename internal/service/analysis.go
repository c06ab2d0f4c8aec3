package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/valueprobe/backend/internal/constant"
	"github.com/valueprobe/backend/internal/model"
	"github.com/valueprobe/backend/internal/model/cache"
	"github.com/valueprobe/backend/internal/pkg/async"
	"github.com/valueprobe/backend/internal/pkg/observability"
	"github.com/valueprobe/backend/internal/repo"
)

// Analysis serves stored analysis results and owns their lifecycle:
// cached reads, recompute dispatch over the work queue, and observation
// of runs whose analysis is still settling.
type Analysis struct {
	AnalysisRepo *repo.Analysis
	NatsJS       nats.JetStreamContext
}

func NewAnalysis(analysisRepo *repo.Analysis, natsJS nats.JetStreamContext) *Analysis {
	return &Analysis{
		AnalysisRepo: analysisRepo,
		NatsJS:       natsJS,
	}
}

// Cache: (analysis) byRunId
// Returns nil without error when the run has no analysis yet.
func (s *Analysis) GetAnalysisByRunID(ctx context.Context, runID string, bypassCache bool) (*model.AnalysisResult, error) {
	if !bypassCache {
		var analysis model.AnalysisResult
		if err := cache.AnalysisByRunID.Get(runID, &analysis); err == nil {
			return &analysis, nil
		}
	}

	reason := "miss"
	if bypassCache {
		reason = "bypass"
	}
	observability.AnalysisCacheMiss.WithLabelValues(reason).Inc()

	analysis, err := s.AnalysisRepo.GetAnalysisByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		// a stale cached record must not outlive the row it mirrors
		_ = cache.AnalysisByRunID.Delete(runID)
		return nil, nil
	}
	if analysis.IsTerminal() {
		if err := cache.AnalysisByRunID.Set(runID, *analysis, constant.AnalysisCacheExpiry); err != nil {
			log.Warn().Err(err).Str("runId", runID).Msg("failed to cache analysis")
		}
	}
	return analysis, nil
}

// GetAnalysesByRunIDs resolves each run id from the cache concurrently and
// batch-fetches the misses in one query. The returned slice follows the
// input order; runs without an analysis are skipped.
func (s *Analysis) GetAnalysesByRunIDs(ctx context.Context, runIDs []string) ([]*model.AnalysisResult, error) {
	type lookup struct {
		runID    string
		analysis *model.AnalysisResult
	}

	lookups, err := async.Map(runIDs, constant.FetchConcurrency, func(runID string) (*lookup, error) {
		var analysis model.AnalysisResult
		if err := cache.AnalysisByRunID.Get(runID, &analysis); err != nil {
			return &lookup{runID: runID}, nil
		}
		return &lookup{runID: runID, analysis: &analysis}, nil
	})
	if err != nil {
		return nil, err
	}

	byRunID := map[string]*model.AnalysisResult{}
	var misses []string
	for _, l := range lookups {
		if l.analysis != nil {
			byRunID[l.runID] = l.analysis
		} else {
			misses = append(misses, l.runID)
		}
	}

	if len(misses) > 0 {
		fetched, err := s.AnalysisRepo.GetAnalysesByRunIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, analysis := range fetched {
			byRunID[analysis.RunID] = analysis
			if analysis.IsTerminal() {
				_ = cache.AnalysisByRunID.Set(analysis.RunID, *analysis, constant.AnalysisCacheExpiry)
			}
		}
	}

	results := make([]*model.AnalysisResult, 0, len(runIDs))
	for _, runID := range runIDs {
		if analysis, ok := byRunID[runID]; ok {
			results = append(results, analysis)
		}
	}
	return results, nil
}

type recomputeRequest struct {
	RunID       string    `json:"runId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// TriggerRecompute enqueues a recompute job for the run on the work queue
// and drops the cached record. Dispatch is fire-and-forget: the caller gets
// an acknowledgement that the request was queued, not that it ran. Repeated
// requests within the stream's duplicate window collapse into one job.
func (s *Analysis) TriggerRecompute(ctx context.Context, runID string) error {
	payload, err := json.Marshal(recomputeRequest{
		RunID:       runID,
		RequestedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	dedupeKey := "recompute:" + runID
	if _, err := s.NatsJS.PublishAsync(constant.AnalysisRecomputeSubject, payload, nats.MsgId(dedupeKey)); err != nil {
		return err
	}

	if err := cache.AnalysisByRunID.Delete(runID); err != nil {
		log.Warn().Err(err).Str("runId", runID).Msg("failed to evict cached analysis")
	}

	observability.RecomputeDispatched.WithLabelValues().Inc()
	log.Info().Str("runId", runID).Msg("analysis recompute dispatched")
	return nil
}

// Observe starts watching the run's analysis. externalStatus seeds the
// watch decision before the first fetch lands; callers that do not know the
// current status pass the empty string. The returned Observer must be
// disposed when the observation ends.
func (s *Analysis) Observe(ctx context.Context, runID string, externalStatus string) *Observer {
	return newObserver(ctx,
		func(ctx context.Context) (*model.AnalysisResult, error) {
			return s.GetAnalysisByRunID(ctx, runID, true)
		},
		func(ctx context.Context) error {
			return s.TriggerRecompute(ctx, runID)
		},
		externalStatus,
		constant.AnalysisWatchInterval,
		constant.RecomputePollInterval,
		constant.RecomputePollMaxAttempts,
	)
}
