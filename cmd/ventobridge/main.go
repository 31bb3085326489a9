// Vento Bridge - UDP/MQTT gateway for single-room ventilation units
//
// This is the main entry point for the bridge daemon. It connects a
// Blauberg Vento Expert (and compatible Ecovent-protocol) heat-recovery
// unit to an MQTT broker, translating between the unit's UDP control
// protocol and a stable MQTT topic tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhbosch/vento-bridge/internal/api"
	"github.com/mhbosch/vento-bridge/internal/bridge"
	"github.com/mhbosch/vento-bridge/internal/infrastructure/config"
	"github.com/mhbosch/vento-bridge/internal/infrastructure/logging"
	"github.com/mhbosch/vento-bridge/internal/infrastructure/mqtt"
	"github.com/mhbosch/vento-bridge/internal/vento"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// flags holds the command-line overrides. Precedence is defaults, then
// config file, then environment, then flags.
type flags struct {
	configPath   string
	ventoHost    string
	mqttHost     string
	mqttPort     int
	mqttUser     string
	mqttPass     string
	baseTopic    string
	pollInterval int
	logLevel     string
}

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, parseFlags(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses command-line arguments.
func parseFlags(args []string) *flags {
	f := &flags{}
	fs := flag.NewFlagSet("ventobridge", flag.ExitOnError)
	fs.StringVar(&f.configPath, "config", "", "path to YAML config file")
	fs.StringVar(&f.ventoHost, "vento-host", "", "ventilation unit hostname or IP")
	fs.StringVar(&f.mqttHost, "mqtt-host", "", "MQTT broker hostname or IP")
	fs.IntVar(&f.mqttPort, "mqtt-port", 0, "MQTT broker port")
	fs.StringVar(&f.mqttUser, "mqtt-user", "", "MQTT username")
	fs.StringVar(&f.mqttPass, "mqtt-pass", "", "MQTT password")
	fs.StringVar(&f.baseTopic, "mqtt-topic", "", "base topic prefix")
	fs.IntVar(&f.pollInterval, "poll-interval", 0, "status poll interval in seconds")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.Parse(args) //nolint:errcheck // ExitOnError handles failures
	return f
}

// applyFlags folds command-line overrides into the loaded configuration.
func applyFlags(cfg *config.Config, f *flags) {
	if f.ventoHost != "" {
		cfg.Device.Host = f.ventoHost
	}
	if f.mqttHost != "" {
		cfg.MQTT.Broker.Host = f.mqttHost
	}
	if f.mqttPort != 0 {
		cfg.MQTT.Broker.Port = f.mqttPort
	}
	if f.mqttUser != "" {
		cfg.MQTT.Auth.Username = f.mqttUser
	}
	if f.mqttPass != "" {
		cfg.MQTT.Auth.Password = f.mqttPass
	}
	if f.baseTopic != "" {
		cfg.Bridge.BaseTopic = f.baseTopic
	}
	if f.pollInterval != 0 {
		cfg.Bridge.PollIntervalSec = f.pollInterval
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
}

// run is the actual application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, f *flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging, version)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	log.Info("starting Vento bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
		"device", cfg.Device.Host,
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	// Topic mapping is pure computation; build it first so its topics can
	// seed the MQTT Last Will.
	mapper, err := bridge.NewMapper(cfg.Bridge.BaseTopic)
	if err != nil {
		return fmt.Errorf("building topic mapping: %w", err)
	}

	// Connect to the ventilation unit. UDP is connectionless, so this
	// only resolves and binds; reachability shows up on the first poll.
	device, err := vento.Dial(ctx, vento.ClientConfig{
		Host:         cfg.Device.Host,
		Port:         cfg.Device.Port,
		Password:     cfg.Device.Password,
		ReplyTimeout: cfg.GetReplyTimeout(),
		Retries:      cfg.Device.Retries,
	})
	if err != nil {
		return fmt.Errorf("dialling ventilation unit: %w", err)
	}
	defer func() {
		if closeErr := device.Close(); closeErr != nil {
			log.Error("error closing device client", "error", closeErr)
		}
	}()
	device.SetLogger(log)

	// Connect to the MQTT broker. The Last Will marks the bridge as down
	// if the process dies without a graceful shutdown.
	mqttClient, err := mqtt.Connect(cfg.MQTT, &mqtt.Will{
		Topic:    mapper.ServiceTopic(),
		Payload:  bridge.ServiceDown,
		QoS:      byte(cfg.MQTT.QoS),
		Retained: true,
	})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT client", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT connection lost", "error", err)
	})
	log.Info("MQTT connected", "broker", cfg.MQTT.Broker.Host)

	// Start the protocol translation.
	b, err := bridge.New(bridge.Options{
		Mapper:           mapper,
		MQTT:             mqttClient,
		Device:           device,
		PollInterval:     cfg.GetPollInterval(),
		PublishUnchanged: cfg.Bridge.PublishUnchanged,
		QoS:              byte(cfg.MQTT.QoS),
		Logger:           log,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := b.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		if stopErr := b.Stop(); stopErr != nil {
			log.Error("error stopping bridge", "error", stopErr)
		}
	}()
	log.Info("bridge started",
		"base_topic", cfg.Bridge.BaseTopic,
		"poll_interval", cfg.GetPollInterval(),
	)

	// Optional HTTP status server.
	if cfg.API.Enabled {
		apiServer, err := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Broker:  mqttClient,
			Bridge:  b,
			Device:  device,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating status API: %w", err)
		}
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("starting status API: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing status API", "error", closeErr)
			}
		}()
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}
