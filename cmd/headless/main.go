// Command headless runs the collision core without any infrastructure and logs what happens.
package main

import (
	"flag"
	"os"

	"github.com/virtuallego/backend/internal/lego"
	"github.com/virtuallego/backend/internal/logger"
)

func main() {
	frames := flag.Int("frames", 3600, "number of frames to simulate")
	dt := flag.Float64("dt", 1.0/60, "seconds per frame")
	steerEvery := flag.Int("steer-every", 0, "nudge the control disk every n frames (0 = never)")
	verbose := flag.Bool("v", false, "log every collision event")
	flag.Parse()

	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dr := lego.NewDriver(lego.NewWorld())
	direction := 1.0
	rounds := 0

	for i := 0; i < *frames; i++ {
		if dr.World.Round == lego.RoundIdle {
			if err := dr.Launch(); err != nil {
				log.Warnw("launch rejected", "frame", dr.Frame(), "error", err)
			}
		}
		if *steerEvery > 0 && i%*steerEvery == 0 {
			z := dr.SteerControlDisk(direction * lego.NudgeStep)
			if z >= dr.World.CorridorMaxZ || z <= dr.World.CorridorMinZ {
				direction = -direction
			}
		}

		res := dr.Advance(*dt)
		for _, e := range res.Events {
			switch e.Type {
			case lego.EventReset:
				rounds++
				log.Infow("round over", "round", e.Round.Number, "cleared", e.Round.TargetsCleared,
					"frames", e.Round.Frames, "at_frame", res.Frame)
			case lego.EventFault:
				log.Warnw("degenerate contact", "frame", res.Frame, "disk", e.DiskID, "against", e.TargetID, "detail", e.Detail)
			default:
				if *verbose {
					log.Debugw("event", "frame", res.Frame, "type", e.Type, "disk", e.DiskID, "other", e.TargetID, "speed", e.Speed)
				}
			}
		}
	}

	log.Infow("simulation finished",
		"frames", dr.Frame(),
		"rounds_finished", rounds,
		"round_in_play", dr.World.Stats.Number,
		"cleared_now", dr.World.ClearedCount(),
		"state", dr.World.Round)
}
