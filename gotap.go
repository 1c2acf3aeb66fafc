package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gotap/card"
	"gotap/clock"
	"gotap/controller"
	"gotap/eventpipe"
	"gotap/feedback"
	"gotap/motion"
	"gotap/mqtt"
	"gotap/report"
)

var myBuild string

// App holds the terminal's state and dependencies.
type App struct {
	cfg      *Config
	logger   *slog.Logger
	mqtt     *mqtt.Client
	reader   card.Reader
	motion   motion.Monitor
	feedback feedback.Emitter
	sink     *report.HTTP
	ctrl     *controller.Controller
	pipe     *eventpipe.Pipe

	// Non-nil only when the matching backend is simulated; the event
	// pipe drives these.
	simReader *card.Sim
	simMotion *motion.Sim

	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	fmt.Printf("gotap build %s\n", myBuild)

	simflag := flag.Bool("sim", false, "Use simulated reader and sensor, driven over the event pipe")
	cfgfile := flag.String("cfg", "gotap.cfg", "Config file")
	flag.Parse()

	cfg, err := loadConfig(*cfgfile)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if *simflag {
		cfg.Reader.Type = "sim"
		cfg.Motion.Type = "sim"
		cfg.Feedback.Console = true
		if cfg.EventPipe.Path == "" {
			cfg.EventPipe.Path = "/tmp/gotap-events"
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{cfg: cfg, logger: logger, ctx: ctx, cancel: cancel}

	app.feedback, err = feedback.New(cfg.Feedback)
	if err != nil {
		logger.Error("init feedback", "error", err)
		os.Exit(1)
	}

	app.reader, err = card.New(cfg.Reader)
	if err != nil {
		logger.Error("init reader", "error", err)
		os.Exit(1)
	}
	app.simReader, _ = app.reader.(*card.Sim)

	app.motion, err = motion.New(cfg.Motion)
	if err != nil {
		logger.Error("init motion sensor", "error", err)
		os.Exit(1)
	}
	app.simMotion, _ = app.motion.(*motion.Sim)

	app.sink = report.New(cfg.Report)

	app.ctrl = controller.New(
		controller.Config{
			Endpoint:      cfg.Endpoint,
			Block:         cfg.Block,
			MotionTimeout: time.Duration(cfg.MotionTimeoutSecs) * time.Second,
			HoldDwell:     time.Duration(cfg.HoldSecs) * time.Second,
		},
		controller.Deps{
			Reader:   app.reader,
			Motion:   app.motion,
			Sink:     app.sink,
			Feedback: app.feedback,
			Clock:    clock.Real(),
			Logger:   logger.With("component", "controller"),
		},
		controller.Hooks{OnComplete: app.publishAttendance},
	)

	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		OnMessage:    app.onMQTTMessage,
	})
	if err != nil {
		logger.Error("init mqtt", "error", err)
		os.Exit(1)
	}

	app.pipe, err = eventpipe.New(cfg.EventPipe, app.handlePipeCommand)
	if err != nil {
		logger.Error("init event pipe", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := app.mqtt.Connect(); err != nil {
			logger.Warn("mqtt connect", "error", err)
		}
	}()
	if app.pipe != nil {
		go app.pipe.Start()
	}
	go app.pingSender()
	go app.run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()

	app.mqtt.Disconnect()
	if app.pipe != nil {
		app.pipe.Close()
	}
	app.reader.Close()
	app.motion.Close()
	app.feedback.Release()

	logger.Info("shutdown complete")
}

// run drives the session state machine. The ticker owns the cadence; the
// controller just steps.
func (app *App) run() {
	tick := time.Duration(app.cfg.TickMS) * time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	app.logger.Info("terminal running",
		"tick", tick,
		"window", time.Duration(app.cfg.MotionTimeoutSecs)*time.Second,
		"endpoint", app.cfg.Endpoint)

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.ctrl.Tick(app.ctx)
		}
	}
}

// publishAttendance forwards completed sessions to the broker. It runs on
// the tick goroutine via the controller hook.
func (app *App) publishAttendance(ev controller.Event) {
	app.mqtt.PublishJSON(mqtt.StatusTopic(app.cfg.ClientID, "attendance"), ev)
}

func (app *App) onMQTTConnect() {
	topic := mqtt.ControlTopic(app.cfg.ClientID, "identify")
	if err := app.mqtt.Subscribe(topic); err != nil {
		app.logger.Warn("subscribe failed", "topic", topic, "error", err)
	}
}

func (app *App) onMQTTDisconnect() {
	app.logger.Warn("mqtt offline, attendance events will be dropped")
}

func (app *App) onMQTTMessage(topic string, payload []byte) {
	if topic == mqtt.ControlTopic(app.cfg.ClientID, "identify") {
		app.identify()
	}
}

// identify chirps the terminal so a tech can find it in a rack of
// lookalikes.
func (app *App) identify() {
	app.logger.Info("identify requested")
	app.feedback.Tone(100 * time.Millisecond)
	app.feedback.Tone(100 * time.Millisecond)
}

func (app *App) handlePipeCommand(cmd eventpipe.Command) {
	switch cmd.Name {
	case "card":
		if app.simReader == nil {
			app.logger.Warn("event pipe card ignored, reader is not simulated")
			return
		}
		app.simReader.Inject(cmd.Token)
	case "motion":
		if app.simMotion == nil {
			app.logger.Warn("event pipe motion ignored, sensor is not simulated")
			return
		}
		app.simMotion.Set(cmd.Active)
	case "identify":
		app.identify()
	}
}

func (app *App) pingSender() {
	ticker := time.NewTicker(120 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.mqtt.Publish(mqtt.StatusTopic(app.cfg.ClientID, "ping"), `{"status":"ok"}`)
		}
	}
}
