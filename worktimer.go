package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worktimer/eventpipe"
	"worktimer/gpio"
	"worktimer/indicator"
	"worktimer/keyboard"
	"worktimer/mqtt"
	"worktimer/rotary"
	"worktimer/timer"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	port      gpio.Port
	sim       *gpio.Sim // nil unless the sim backend is selected
	rotary    *rotary.Rotary
	timer     *timer.Timer
	indicator indicator.Indicator
	mqtt      *mqtt.Client
	pipe      *eventpipe.EventPipe
	keyboard  *keyboard.Keyboard
	presses   chan struct{}
	turns     chan int
	cancels   chan struct{}
	debug     bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func main() {
	fmt.Printf("worktimer build %s\n", myBuild)

	cfgfile := flag.String("cfg", "worktimer.yaml", "Config file")
	debug := flag.Bool("debug", false, "Log every knob movement and command")
	flag.Parse()

	f, err := os.Open(*cfgfile)
	if err != nil {
		log.Fatalf("Open config: %v", err)
	}
	cfg, err := LoadConfig(f)
	f.Close()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		cfg:     cfg,
		timer:   timer.New(),
		presses: make(chan struct{}, 1),
		turns:   make(chan int, 16),
		cancels: make(chan struct{}, 1),
		debug:   *debug,
		ctx:     ctx,
		cancel:  cancel,
	}

	app.port, err = gpio.New(cfg.GPIO)
	if err != nil {
		log.Fatalf("Init gpio: %v", err)
	}
	app.sim, _ = app.port.(*gpio.Sim)

	app.indicator, err = indicator.New(cfg.Indicator, app.port)
	if err != nil {
		log.Fatalf("Init indicator: %v", err)
	}
	app.indicator.ConnectionLost()

	app.rotary, err = rotary.New(app.port, cfg.Rotary, rotary.Handlers{
		OnError: func(err error) { log.Printf("Rotary: %v", err) },
	}, app.onPress)
	if err != nil {
		log.Fatalf("Init rotary: %v", err)
	}
	if app.rotary != nil {
		if err := app.rotary.Start(ctx); err != nil {
			log.Fatalf("Start rotary: %v", err)
		}
		log.Printf("Rotary encoder initialized (A=%d, B=%d, BTN=%d, %d steps/detent)",
			cfg.Rotary.APin, cfg.Rotary.BPin, cfg.Rotary.Button.Pin, cfg.Rotary.StepsPerCycle)
	}

	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.indicator.ConnectionLost,
		OnCommand:    app.onCommandLine,
	})
	if err != nil {
		log.Fatalf("Init MQTT: %v", err)
	}

	app.pipe, err = eventpipe.New(cfg.EventPipe, app.onCommand)
	if err != nil {
		log.Fatalf("Init event pipe: %v", err)
	}
	if app.pipe != nil {
		go app.pipe.Start()
	}

	app.keyboard, err = keyboard.New(cfg.Keyboard, app.onKey)
	if err != nil {
		log.Fatalf("Init keyboard: %v", err)
	}
	if app.keyboard != nil {
		go app.keyboard.Run(ctx)
	}

	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
	go app.pingSender()
	go app.loop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	cancel()

	if app.rotary != nil {
		app.rotary.Release()
	}
	if app.pipe != nil {
		app.pipe.Close()
	}
	if app.keyboard != nil {
		app.keyboard.Close()
	}
	if elapsed, err := app.timer.Stop(); err == nil {
		app.mqtt.PublishTimer(false, timer.Format(elapsed))
	}
	app.mqtt.Disconnect()
	app.indicator.Shutdown()
	app.indicator.Release()
	app.port.Close()

	fmt.Println("Shutdown complete")
}

// loop is the consumer side of the encoder: it drains detents and
// button presses once per tick.
func (app *App) loop() {
	ticker := time.NewTicker(app.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-app.presses:
			app.toggleTimer()
		case <-app.cancels:
			app.stopTimer()
		case n := <-app.turns:
			app.onTurn(n)
		case <-ticker.C:
			if app.rotary == nil {
				continue
			}
			if err := app.rotary.PollPress(); err != nil {
				log.Printf("Button: %v", err)
			}
			if cycles := app.rotary.ReadCycles(); cycles != 0 {
				app.onTurn(cycles)
			}
		}
	}
}

// onPress runs in the GPIO notification context, so it only signals the loop.
func (app *App) onPress() {
	select {
	case app.presses <- struct{}{}:
	default:
	}
}

// onKey runs on the keyboard goroutine and hands actions to the loop.
func (app *App) onKey(a keyboard.Action) {
	if app.debug {
		log.Printf("Key %s", a)
	}
	switch a {
	case keyboard.ActionUp:
		app.sendTurn(1)
	case keyboard.ActionDown:
		app.sendTurn(-1)
	case keyboard.ActionEnter:
		app.onPress()
	case keyboard.ActionCancel:
		select {
		case app.cancels <- struct{}{}:
		default:
		}
	}
}

func (app *App) sendTurn(n int) {
	select {
	case app.turns <- n:
	case <-app.ctx.Done():
	}
}

func (app *App) onTurn(cycles int) {
	if app.debug {
		log.Printf("Rotated %d", cycles)
	}
	app.mqtt.PublishKnob(cycles)
}

func (app *App) toggleTimer() {
	running := app.timer.Toggle()
	elapsed, _ := app.timer.Elapsed()
	if running {
		log.Printf("Timer started at %s", timer.Format(elapsed))
		app.indicator.Timing()
	} else {
		log.Printf("Timer stopped at %s", timer.Format(elapsed))
		app.indicator.Idle()
	}
	app.mqtt.PublishTimer(running, timer.Format(elapsed))
}

// stopTimer stops a running timer; a stopped one is left alone.
func (app *App) stopTimer() {
	if !app.timer.Running() {
		return
	}
	elapsed, err := app.timer.Stop()
	if err != nil {
		return
	}
	log.Printf("Timer stopped at %s", timer.Format(elapsed))
	app.indicator.Idle()
	app.mqtt.PublishTimer(false, timer.Format(elapsed))
}

func (app *App) onMQTTConnect() {
	if app.timer.Running() {
		app.indicator.Timing()
	} else {
		app.indicator.Idle()
	}
}

func (app *App) onCommandLine(line string) {
	cmd, err := eventpipe.Parse(line)
	if err != nil {
		log.Printf("Remote command %q: %v", line, err)
		return
	}
	app.onCommand(cmd)
}

// onCommand applies a simulated input command. Only the sim backend
// accepts them.
func (app *App) onCommand(cmd eventpipe.Command) {
	if app.debug {
		log.Printf("Command %+v", cmd)
	}
	if app.sim == nil {
		log.Printf("Ignoring command: gpio backend %q is not simulated", app.cfg.GPIO.Type)
		return
	}
	target := eventpipe.Target{
		Driver:           app.sim,
		APin:             app.cfg.Rotary.APin,
		BPin:             app.cfg.Rotary.BPin,
		StepsPerCycle:    app.cfg.Rotary.StepsPerCycle,
		ButtonPin:        app.cfg.Rotary.Button.Pin,
		ButtonActiveHigh: app.cfg.Rotary.Button.ActiveHigh,
	}
	if app.rotary != nil && app.rotary.Mode() == rotary.ModePoll {
		target.Delay = 2 * app.cfg.Rotary.Interval
	}
	if err := eventpipe.Apply(cmd, target); err != nil {
		log.Printf("Apply command: %v", err)
	}
}

func (app *App) pingSender() {
	if app.cfg.PingSecs < 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(app.cfg.PingSecs) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.mqtt.Ping()
		}
	}
}
