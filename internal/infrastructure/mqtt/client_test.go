package mqtt

import (
	"errors"
	"strings"
	"testing"

	"github.com/mhbosch/vento-bridge/internal/infrastructure/config"
)

func testMQTTConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host: "127.0.0.1",
			Port: 1883,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{}

	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("vento/state", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Publish("vento/state", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish(disconnected) error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("vento/+/set", 5, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 5) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("vento/+/set", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe("vento/+/set", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe(disconnected) error = %v, want ErrNotConnected", err)
	}
}

func TestCloseUnconnected(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v, want nil", err)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Broker.ClientID = "ventobridge-test"
	cfg.Auth.Username = "fan"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg, nil)

	if len(opts.Servers) != 1 {
		t.Fatalf("Servers = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "ventobridge-test" {
		t.Errorf("ClientID = %q, want ventobridge-test", opts.ClientID)
	}
	if opts.Username != "fan" {
		t.Errorf("Username = %q, want fan", opts.Username)
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg, nil)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig not set for TLS broker")
	}
}

func TestBuildClientOptionsWill(t *testing.T) {
	opts := buildClientOptions(testMQTTConfig(), &Will{
		Topic:    "blauberg-vento/service",
		Payload:  "Service Down",
		QoS:      1,
		Retained: true,
	})

	if !opts.WillEnabled {
		t.Fatal("will not enabled")
	}
	if opts.WillTopic != "blauberg-vento/service" {
		t.Errorf("WillTopic = %q, want blauberg-vento/service", opts.WillTopic)
	}
	if string(opts.WillPayload) != "Service Down" {
		t.Errorf("WillPayload = %q, want Service Down", opts.WillPayload)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}
}

func TestClientID(t *testing.T) {
	if got := clientID("custom"); got != "custom" {
		t.Errorf("clientID(custom) = %q, want custom", got)
	}

	generated := clientID("")
	if !strings.HasPrefix(generated, "ventobridge-") {
		t.Errorf("generated client ID %q missing prefix", generated)
	}
	if other := clientID(""); other == generated {
		t.Error("generated client IDs collide")
	}
}
