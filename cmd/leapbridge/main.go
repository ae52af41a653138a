// leapbridge: streams Leap Motion hand tracking to a 6-DOF arm over MQTT
//
// Usage:
//
//	go run ./cmd/leapbridge -config leaparm.yaml
//	MQTT_BROKER=tcp://arm.local:1883 go run ./cmd/leapbridge -mode joints
//
// Keys (type then Enter): a = zero, r = reset, s = pause/resume, q = quit.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-leaparm/internal/config"
	"github.com/teslashibe/go-leaparm/internal/log"
	"github.com/teslashibe/go-leaparm/pkg/bridge"
	"github.com/teslashibe/go-leaparm/pkg/busclient"
	"github.com/teslashibe/go-leaparm/pkg/leapws"
	"github.com/teslashibe/go-leaparm/pkg/serialout"
	"github.com/teslashibe/go-leaparm/pkg/web"
)

var (
	version    = "0.3.0"
	configPath = flag.String("config", "", "YAML config file")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
	broker     = flag.String("broker", "", "MQTT broker URL (overrides config)")
	mode       = flag.String("mode", "", "Output mode: ik or joints (overrides config)")
	webAddr    = flag.String("web", "", "Status server address, e.g. :8090 (overrides config)")
	noKeys     = flag.Bool("no-keys", false, "Do not read keyboard commands from stdin")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid flags: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	fmt.Println()
	fmt.Println("leapbridge v" + version)
	fmt.Printf("   mode=%s broker=%s prefix=%s\n", cfg.Bridge.Mode, cfg.Bus.Broker, cfg.Bus.Prefix)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("leapbridge failed", "error", err)
		os.Exit(1)
	}
	logger.Info("goodbye")
}

func applyFlags(cfg *config.Config) {
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *broker != "" {
		cfg.Bus.Broker = *broker
	}
	if *mode != "" {
		cfg.Bridge.Mode = bridge.Mode(*mode)
	}
	if *webAddr != "" {
		cfg.Web.Enabled = true
		cfg.Web.Addr = *webAddr
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// Bus
	bus, err := busclient.New(cfg.Bus, logger.With("component", "bus"))
	if err != nil {
		return fmt.Errorf("bus client: %w", err)
	}
	defer bus.Close()

	logger.Info("connecting to broker", "broker", cfg.Bus.Broker)
	if err := bus.ConnectWithRetry(ctx); err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}

	// Outputs
	pub := bridge.Tee{bus.Publisher()}
	if cfg.Serial.Enabled {
		w, err := serialout.Open(cfg.Serial.Port, logger.With("component", "serial"))
		if err != nil {
			return fmt.Errorf("serial output: %w", err)
		}
		defer w.Close()
		pub = append(pub, w)

		go func() {
			err := w.ReadLines(ctx, func(line string) {
				logger.Debug("controller", "line", line)
			})
			if err != nil && ctx.Err() == nil {
				logger.Warn("serial read stopped", "error", err)
			}
		}()
	}

	// Pipeline. The web server is created after the bridge, so events are
	// forwarded through srv once it exists.
	var srv *web.Server
	observe := func(ev bridge.Event) {
		if srv != nil {
			srv.Observe(ev)
		}
	}

	b, err := bridge.New(cfg.Bridge, pub, logger.With("component", "bridge"), bridge.WithObserver(observe))
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	defer b.Stop()

	if cfg.Web.Enabled {
		srv = web.NewServer(cfg.Web.Addr, b, logger.With("component", "web"))
		srv.SetConfig(cfg)
		srv.BusStats = func() interface{} { return bus.Stats() }
		srv.StartAsync(ctx)
		defer srv.Shutdown()
	}

	// Remote control
	if err := bus.Subscribe(bus.Topics().Control(), func(data []byte) {
		_ = b.HandleCommand(string(data))
	}); err != nil {
		return fmt.Errorf("subscribe control: %w", err)
	}

	// Sensor
	sensor, err := leapws.New(cfg.Leap, b, logger.With("component", "leap"))
	if err != nil {
		return fmt.Errorf("sensor client: %w", err)
	}
	go func() {
		if err := sensor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("sensor client stopped", "error", err)
		}
	}()

	if !*noKeys {
		go readKeys(b, logger)
	}

	if cfg.Bridge.RequireZero {
		logger.Info("waiting for zero command", "topic", bus.Topics().Control())
	}

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
		return ctx.Err()
	case <-b.Done():
		logger.Info("stop requested, shutting down")
		return nil
	}
}

// keyCommands maps single keys to control commands.
var keyCommands = map[string]bridge.Command{
	"a": bridge.CommandZero,
	"r": bridge.CommandReset,
	"s": bridge.CommandToggle,
	"q": bridge.CommandStop,
}

// readKeys reads commands from stdin, one per line. Lines that are not a
// known key are parsed as command names.
func readKeys(b *bridge.Bridge, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		if cmd, ok := keyCommands[line]; ok {
			if err := b.Execute(cmd); err != nil {
				logger.Warn("command failed", "command", cmd, "error", err)
			}
			continue
		}
		_ = b.HandleCommand(line)
	}
}
