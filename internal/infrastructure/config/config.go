package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Vento bridge.
// All configuration is loaded from YAML and can be overridden by
// environment variables and command-line flags.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
}

// DeviceConfig contains ventilation unit connection settings.
type DeviceConfig struct {
	// Host is the unit's hostname or IP address. Required.
	Host string `yaml:"host"`

	// Port is the unit's UDP control port. Default: 4000.
	Port int `yaml:"port"`

	// Password is the device password transmitted as the frame header.
	// Default: "mobile" (factory setting).
	Password string `yaml:"password"`

	// ReplyTimeoutMS is the wait for a single reply, in milliseconds.
	ReplyTimeoutMS int `yaml:"reply_timeout_ms"`

	// Retries is the number of retransmissions after an unanswered request.
	Retries int `yaml:"retries"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// ClientID identifies this bridge to the broker. When empty, a
	// random suffix is generated at connect time.
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// BridgeConfig contains protocol translation settings.
type BridgeConfig struct {
	// BaseTopic is the prefix for all bridge topics.
	// Command topics: <base>/<parameter>/set
	// Status topics:  <base>/<parameter>/state
	BaseTopic string `yaml:"base_topic"`

	// PollIntervalSec is the status poll period in seconds.
	PollIntervalSec int `yaml:"poll_interval_sec"`

	// PublishUnchanged disables de-duplication: every poll cycle
	// republishes all values even when nothing changed.
	PublishUnchanged bool `yaml:"publish_unchanged"`
}

// APIConfig contains the optional HTTP status server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// Output is "stdout", "stderr", or a file path to append to.
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults; skipped when path is empty)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern VENTO_SECTION_KEY, for
// example VENTO_DEVICE_HOST or VENTO_MQTT_PASSWORD.
//
// Validation is NOT performed here: the caller applies command-line flag
// overrides on top of the loaded values and then calls Validate.
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded configuration (not yet validated)
//   - error: If the file cannot be read or parsed
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:           4000,
			Password:       "mobile",
			ReplyTimeoutMS: 2000,
			Retries:        3,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Bridge: BridgeConfig{
			BaseTopic:       "blauberg-vento",
			PollIntervalSec: 10,
		},
		API: APIConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    8099,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
// Environment variables follow the pattern VENTO_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("VENTO_DEVICE_HOST"); v != "" {
		cfg.Device.Host = v
	}
	if v := os.Getenv("VENTO_DEVICE_PASSWORD"); v != "" {
		cfg.Device.Password = v
	}

	// MQTT
	if v := os.Getenv("VENTO_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("VENTO_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("VENTO_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VENTO_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Bridge
	if v := os.Getenv("VENTO_BASE_TOPIC"); v != "" {
		cfg.Bridge.BaseTopic = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	if c.Device.Host == "" {
		errs = append(errs, "device.host is required (set -vento-host or VENTO_DEVICE_HOST)")
	}
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		errs = append(errs, "device.port must be between 1 and 65535")
	}
	if c.Device.Password == "" {
		errs = append(errs, "device.password is required")
	}
	if c.Device.ReplyTimeoutMS < 1 {
		errs = append(errs, "device.reply_timeout_ms must be positive")
	}
	if c.Device.Retries < 0 {
		errs = append(errs, "device.retries must not be negative")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Bridge validation
	if c.Bridge.BaseTopic == "" {
		errs = append(errs, "bridge.base_topic is required")
	}
	if strings.ContainsAny(c.Bridge.BaseTopic, "+#") {
		errs = append(errs, "bridge.base_topic must not contain MQTT wildcards")
	}
	if strings.HasPrefix(c.Bridge.BaseTopic, "/") || strings.HasSuffix(c.Bridge.BaseTopic, "/") {
		errs = append(errs, "bridge.base_topic must not start or end with '/'")
	}
	if c.Bridge.PollIntervalSec < 1 {
		errs = append(errs, "bridge.poll_interval_sec must be at least 1")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReplyTimeout returns the device reply timeout as a Duration.
func (c *Config) GetReplyTimeout() time.Duration {
	return time.Duration(c.Device.ReplyTimeoutMS) * time.Millisecond
}

// GetPollInterval returns the status poll period as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Bridge.PollIntervalSec) * time.Second
}
