package v2

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("controllers.v2", fx.Invoke(
		RegisterAnalysis,
	))
}
