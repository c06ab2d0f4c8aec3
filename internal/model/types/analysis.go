package types

type AggregateAnalysisRequest struct {
	// RunIDs lists the runs whose analyses get aggregated. A single run has
	// nothing to aggregate against, hence the minimum of two.
	RunIDs []string `json:"runIds" validate:"required,min=2,max=100,dive,required"`
}
