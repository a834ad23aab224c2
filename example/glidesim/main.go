package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"github.com/akmonengine/glide"
	"github.com/akmonengine/glide/actor"
	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// How far the door slides up when bumped
const doorLift = 90.0

func main() {
	settingsPath := flag.String("settings", "glide.toml", "settings file, created with defaults if missing")
	scenePath := flag.String("scene", "", "scene file (TOML), the built-in room if empty")
	frames := flag.Int("frames", 300, "frames to simulate without -view")
	frameTime := flag.Duration("frame", 20*time.Millisecond, "simulated frame duration without -view")
	view := flag.Bool("view", false, "render a top-down view in the terminal")
	stats := flag.Bool("statsview", false, "serve runtime charts on localhost:18066")
	flag.Parse()

	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{ForceColors: true}
	log.Level = logrus.DebugLevel

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			log.Warnf("sentry disabled: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}
	defer sentry.Recover()

	if *stats {
		// set configurations before calling `statsview.New()` method
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr("localhost:18066"))

		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	settings := loadSettings(log, *settingsPath)

	s := defaultScene()
	if *scenePath != "" {
		var err error
		if s, err = loadScene(*scenePath); err != nil {
			fatal(log, err)
		}
	}

	world, err := glide.NewWorld(log, s.Map, settings)
	if err != nil {
		fatal(log, err)
	}
	for _, b := range s.Brushes {
		if err := world.AddBrush(b); err != nil {
			fatal(log, err)
		}
	}
	for _, c := range s.Characters {
		world.AddCharacter(c)
	}
	subscribe(log, world)

	if *view {
		if err := runView(world); err != nil {
			fatal(log, err)
		}
		return
	}

	dt := frameTime.Seconds()
	for frame := 0; frame < *frames; frame++ {
		world.Step(dt)

		if frame%25 == 0 {
			for _, c := range world.Characters() {
				log.WithFields(logrus.Fields{
					"frame":    frame,
					"position": c.RenderPosition,
					"state":    c.State,
				}).Info(c.Name)
			}
		}
	}
	log.Infof("%d ticks simulated", world.Ticks())
}

// loadSettings falls back to the defaults when the file cannot be used
func loadSettings(log *logrus.Logger, path string) glide.Settings {
	settings, err := glide.LoadSettings(path)
	if err == nil {
		return settings
	}

	if errors.Is(err, glide.ErrSettingsMissing) {
		if err := glide.SaveDefaultSettings(path); err != nil {
			log.Warnf("could not write default settings: %v", err)
		} else {
			log.Infof("default settings written to %s", path)
		}
	} else {
		log.Warnf("using default settings: %v", err)
	}
	return glide.DefaultSettings()
}

// subscribe logs every event and opens bumped doors
func subscribe(log *logrus.Logger, world *glide.World) {
	world.Events.Subscribe(glide.BUMP_ENTER, func(event glide.Event) {
		e := event.(glide.BumpEnterEvent)
		log.WithField("brush", e.Brush.Name).Infof("%s bumped", e.Character.Name)

		transform := e.Brush.Transform()
		transform.Position = transform.Position.Add(actor.WorldUp.Mul(doorLift))
		e.Brush.SetTransform(transform)
	})
	world.Events.Subscribe(glide.BUMP_EXIT, func(event glide.Event) {
		e := event.(glide.BumpExitEvent)
		log.WithField("brush", e.Brush.Name).Debugf("%s stopped bumping", e.Character.Name)
	})
	world.Events.Subscribe(glide.ON_LAND, func(event glide.Event) {
		e := event.(glide.LandEvent)
		log.WithField("at", roundVec(e.Ground.HitPoint)).Infof("%s landed", e.Character.Name)
	})
	world.Events.Subscribe(glide.ON_LEAVE_GROUND, func(event glide.Event) {
		e := event.(glide.LeaveGroundEvent)
		log.Infof("%s left the ground", e.Character.Name)
	})
}

func fatal(log *logrus.Logger, err error) {
	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
	log.Fatal(err)
}

func roundVec(v mgl64.Vec3) mgl64.Vec3 {
	for i := range v {
		v[i] = mgl64.Round(v[i], 2)
	}
	return v
}
