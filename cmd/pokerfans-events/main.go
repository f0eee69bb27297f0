package main

import (
	// Embedded tz database so Asia/Tokyo resolves on minimal images.
	_ "time/tzdata"

	"github.com/tournament-radar/pokerfans-events/internal/cli"
)

func main() {
	cli.Execute()
}
