package repo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/valueprobe/backend/internal/model"
)

type Analysis struct {
	db *bun.DB
}

func NewAnalysis(db *bun.DB) *Analysis {
	return &Analysis{db: db}
}

// GetAnalysisByRunID returns the latest analysis record for the run, or nil
// when the compute workers have not produced one yet.
func (r *Analysis) GetAnalysisByRunID(ctx context.Context, runID string) (*model.AnalysisResult, error) {
	var analysis model.AnalysisResult
	err := r.db.NewSelect().
		Model(&analysis).
		Where("run_id = ?", runID).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// GetAnalysesByRunIDs returns the latest analysis record per run for every
// run in runIDs. Runs without a record are silently absent from the result.
func (r *Analysis) GetAnalysesByRunIDs(ctx context.Context, runIDs []string) ([]*model.AnalysisResult, error) {
	if len(runIDs) == 0 {
		return []*model.AnalysisResult{}, nil
	}

	var analyses []*model.AnalysisResult
	err := r.db.NewSelect().
		Model(&analyses).
		Where("run_id IN (?)", bun.In(runIDs)).
		DistinctOn("run_id").
		Order("run_id", "created_at DESC").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return []*model.AnalysisResult{}, nil
	} else if err != nil {
		return nil, err
	}
	return analyses, nil
}
