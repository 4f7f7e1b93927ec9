package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"loopscroll/internal/config"
	"loopscroll/internal/eventbus"
	"loopscroll/internal/feed"
	"loopscroll/internal/logging"
	"loopscroll/internal/ui"
)

// flags holds the command line; zero values mean "not given"
type flags struct {
	configPath   string
	format       string
	keyField     string
	textField    string
	follow       bool
	direction    string
	speed        float64
	wait         time.Duration
	waitMode     string
	loadCount    int
	noHoverPause bool
	width        int
	height       int
	logFile      string
	debug        bool
	writeConfig  bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Config file (default: "+config.DefaultPath()+")")
	flag.StringVar(&f.format, "format", "", "Input format: lines or jsonl")
	flag.StringVar(&f.keyField, "key-field", "", "jsonl field identifying an entry")
	flag.StringVar(&f.textField, "text-field", "", "jsonl field shown for an entry")
	flag.BoolVar(&f.follow, "follow", false, "Keep reading FILE as it grows")
	flag.StringVar(&f.direction, "direction", "", "Scroll direction: up, down, left or right")
	flag.Float64Var(&f.speed, "speed", 0, "Cells moved per frame")
	flag.DurationVar(&f.wait, "wait", 0, "Pause after each wait point, e.g. 1.5s")
	flag.StringVar(&f.waitMode, "wait-mode", "", "When to wait: item or page")
	flag.IntVar(&f.loadCount, "load-count", 0, "Entries placed per batch")
	flag.BoolVar(&f.noHoverPause, "no-hover-pause", false, "Keep scrolling under the mouse")
	flag.IntVar(&f.width, "width", 0, "Frame width in cells (default: terminal width)")
	flag.IntVar(&f.height, "height", 0, "Frame height in cells (default: terminal height)")
	flag.StringVar(&f.logFile, "log-file", "", "Append logs to this file")
	flag.BoolVar(&f.debug, "debug", false, "Log at debug level")
	flag.BoolVar(&f.writeConfig, "write-config", false, "Save the effective config and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [FILE|-]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(f, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags, path string) error {
	// Set up logging
	logger, logCloser, err := logging.New(f.logFile, f.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer logCloser.Close()

	// Create event bus
	bus := eventbus.New(logger)
	defer bus.Close()

	configSvc := config.NewConfigService(bus)
	if f.configPath != "" {
		configSvc = config.NewConfigServiceAt(f.configPath, bus)
	}
	cfg, err := configSvc.Load()
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		logger.Warn().Err(err).Msg("ignoring invalid environment overrides")
	}
	applyFlags(cfg, f)

	if f.writeConfig {
		if err := configSvc.Save(cfg); err != nil {
			return err
		}
		fmt.Println("Config saved")
		return nil
	}

	format, err := feed.ParseFormat(cfg.Feed.Format)
	if err != nil {
		return err
	}
	src, err := feed.Open(path, feed.Options{
		Format:    format,
		KeyField:  cfg.Feed.KeyField,
		TextField: cfg.Feed.TextField,
		Follow:    cfg.Feed.Follow,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	model := ui.NewModel(ui.Options{Config: cfg, Source: src, Bus: bus, Logger: logger})
	defer model.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseAllMotion()}
	if path == "" || path == "-" {
		// stdin carries the feed, keys come from the terminal
		opts = append(opts, tea.WithInputTTY())
	}
	p := tea.NewProgram(model, opts...)
	model.SetProgram(p)

	forwardEvents(bus, p, logger)

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		if _, ok := <-sigChan; ok {
			p.Quit()
		}
	}()

	logger.Info().Str("feed", path).Str("direction", cfg.Scroll.Direction).Msg("starting UI")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	logger.Info().Msg("UI exited normally")
	return nil
}

// applyFlags overrides cfg with the flags given on the command line
func applyFlags(cfg *config.Config, f flags) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "format":
			cfg.Feed.Format = f.format
		case "key-field":
			cfg.Feed.KeyField = f.keyField
		case "text-field":
			cfg.Feed.TextField = f.textField
		case "follow":
			cfg.Feed.Follow = f.follow
		case "direction":
			cfg.Scroll.Direction = f.direction
		case "speed":
			cfg.Scroll.Speed = f.speed
		case "wait":
			cfg.Scroll.Wait = config.Duration(f.wait)
		case "wait-mode":
			cfg.Scroll.WaitMode = f.waitMode
		case "load-count":
			cfg.Scroll.LoadCount = f.loadCount
		case "no-hover-pause":
			cfg.Scroll.PauseOnHover = !f.noHoverPause
		case "width":
			cfg.UI.Width = f.width
		case "height":
			cfg.UI.Height = f.height
		}
	})
	cfg.Normalize()
}

// forwardEvents hands the events the UI reacts to over to the program
func forwardEvents(bus eventbus.EventBus, p *tea.Program, logger zerolog.Logger) {
	for _, t := range []eventbus.EventType{
		eventbus.EventBatchLoaded,
		eventbus.EventBatchFailed,
		eventbus.EventCapabilityUnavailable,
	} {
		bus.Subscribe(t, func(e eventbus.DomainEvent) {
			logger.Debug().Str("event", string(e.Type())).Msg("forwarding event to UI")
			p.Send(ui.EventMsg{Event: e})
		})
	}
}
