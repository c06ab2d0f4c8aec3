package main

import (
	"github.com/valueprobe/backend/cmd/app"
)

func main() {
	app.Run()
}
