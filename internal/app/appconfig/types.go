package appconfig

import (
	"github.com/valueprobe/backend/internal/app/appcontext"
)

type Config struct {
	ConfigSpec
	AppContext appcontext.Ctx
}
