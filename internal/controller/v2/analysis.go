package v2

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/valueprobe/backend/internal/model/types"
	"github.com/valueprobe/backend/internal/pkg/cachectrl"
	"github.com/valueprobe/backend/internal/pkg/vperr"
	"github.com/valueprobe/backend/internal/server/svr"
	"github.com/valueprobe/backend/internal/service"
	"github.com/valueprobe/backend/internal/util/rekuest"
)

type Analysis struct {
	fx.In

	AnalysisService  *service.Analysis
	AggregateService *service.Aggregate
	WarningService   *service.Warning
}

func RegisterAnalysis(v2 *svr.V2, c Analysis) {
	group := v2.Group("/analysis")

	group.Get("/:runId", c.GetAnalysis)
	group.Post("/:runId/recompute", c.RecomputeAnalysis)
	group.Post("/aggregate", c.AggregateAnalyses)
}

// GetAnalysis returns the latest analysis of a run with its warnings
// consolidated for presentation. `?refresh=true` bypasses the cache.
func (c *Analysis) GetAnalysis(ctx *fiber.Ctx) error {
	runID := ctx.Params("runId")

	refresh, err := strconv.ParseBool(ctx.Query("refresh", "false"))
	if err != nil {
		return vperr.ErrInvalidReq.Msg("invalid refresh: %s", err)
	}

	analysis, err := c.AnalysisService.GetAnalysisByRunID(ctx.UserContext(), runID, refresh)
	if err != nil {
		return err
	}
	if analysis == nil {
		return vperr.ErrNotFound.Msg("no analysis exists for run %s", runID)
	}

	// consolidation is presentation-only and must not leak into the cache
	out := *analysis
	out.Warnings = c.WarningService.Consolidate(analysis.Warnings, analysis.PerModel, nil)

	if out.IsTerminal() && out.ComputedAt.Valid {
		cachectrl.OptInCustom(ctx, out.ComputedAt.Time, time.Minute)
	} else {
		cachectrl.OptOut(ctx)
	}

	return ctx.JSON(out)
}

// RecomputeAnalysis dispatches a recompute job for the run. The 202 means
// the job was queued; its progress shows up through the analysis status.
func (c *Analysis) RecomputeAnalysis(ctx *fiber.Ctx) error {
	runID := ctx.Params("runId")

	if err := c.AnalysisService.TriggerRecompute(ctx.UserContext(), runID); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "recompute dispatched",
	})
}

// AggregateAnalyses combines the analyses of the requested runs into one
// virtual result. The result is computed on the fly and never persisted.
func (c *Analysis) AggregateAnalyses(ctx *fiber.Ctx) error {
	var request types.AggregateAnalysisRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	analyses, err := c.AnalysisService.GetAnalysesByRunIDs(ctx.UserContext(), request.RunIDs)
	if err != nil {
		return err
	}
	if len(analyses) == 0 {
		return vperr.ErrNotFound.Msg("no analyses exist for the given runs")
	}

	aggregate, err := c.AggregateService.Aggregate(analyses)
	if err != nil {
		return err
	}

	aggregate.Warnings = c.WarningService.Consolidate(aggregate.Warnings, aggregate.PerModel, nil)

	return ctx.JSON(aggregate)
}
