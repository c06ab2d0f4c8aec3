package controller

import (
	"go.uber.org/fx"

	controllermeta "github.com/valueprobe/backend/internal/controller/meta"
	controllerv2 "github.com/valueprobe/backend/internal/controller/v2"
)

func Module() fx.Option {
	return fx.Module("controller",
		// Controllers (v2)
		controllerv2.Module(),

		// Controllers (meta)
		controllermeta.Module(),
	)
}
