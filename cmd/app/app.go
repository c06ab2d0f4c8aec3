package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/valueprobe/backend/cmd/app/server"
	"github.com/valueprobe/backend/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "vpbackend",
		Description: "The ValueProbe analysis backend. Built with Go, fiber, bun and go.uber.org/fx. Uses NATS as MQ and Redis as cache.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
