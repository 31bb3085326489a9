package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/mhbosch/vento-bridge/internal/vento"
)

const testBase = "blauberg-vento"

func mustMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(testBase)
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}
	return m
}

func TestNewMapperBijection(t *testing.T) {
	m := mustMapper(t)

	seen := make(map[string]string)
	for _, p := range vento.Parameters() {
		status := m.StatusTopic(p)
		if owner, dup := seen[status]; dup {
			t.Errorf("status topic %s assigned to both %s and %s", status, owner, p.Name)
		}
		seen[status] = p.Name

		if !p.Writable() {
			if got := m.ParameterForCommandTopic(m.CommandTopic(p)); got != nil {
				t.Errorf("read-only parameter %s has a routed command topic", p.Name)
			}
			continue
		}

		command := m.CommandTopic(p)
		if owner, dup := seen[command]; dup {
			t.Errorf("command topic %s assigned to both %s and %s", command, owner, p.Name)
		}
		seen[command] = p.Name

		got := m.ParameterForCommandTopic(command)
		if got == nil {
			t.Errorf("ParameterForCommandTopic(%s) = nil, want %s", command, p.Name)
		} else if got.Name != p.Name {
			t.Errorf("ParameterForCommandTopic(%s) = %s, want %s", command, got.Name, p.Name)
		}
	}

	if topic := m.ServiceTopic(); seen[topic] != "" {
		t.Errorf("service topic %s collides with parameter %s", topic, seen[topic])
	}
}

func TestTopicNames(t *testing.T) {
	m := mustMapper(t)
	speed := vento.ParameterByName("fan-speed")
	if speed == nil {
		t.Fatal("fan-speed missing from registry")
	}

	if got, want := m.CommandTopic(speed), "blauberg-vento/fan-speed/set"; got != want {
		t.Errorf("CommandTopic() = %s, want %s", got, want)
	}
	if got, want := m.StatusTopic(speed), "blauberg-vento/fan-speed/state"; got != want {
		t.Errorf("StatusTopic() = %s, want %s", got, want)
	}
	if got, want := m.ServiceTopic(), "blauberg-vento/service"; got != want {
		t.Errorf("ServiceTopic() = %s, want %s", got, want)
	}
	if got, want := m.CommandFilter(), "blauberg-vento/+/set"; got != want {
		t.Errorf("CommandFilter() = %s, want %s", got, want)
	}
}

func TestParameterForCommandTopicUnknown(t *testing.T) {
	m := mustMapper(t)

	for _, topic := range []string{
		"blauberg-vento/no-such-parameter/set",
		"blauberg-vento/fan-speed/state",
		"blauberg-vento/humidity/set", // read-only, not routed
		"other-prefix/fan-speed/set",
		"",
	} {
		if got := m.ParameterForCommandTopic(topic); got != nil {
			t.Errorf("ParameterForCommandTopic(%q) = %s, want nil", topic, got.Name)
		}
	}
}

func TestDecodePayload(t *testing.T) {
	m := mustMapper(t)
	state := vento.ParameterByName("state")
	speed := vento.ParameterByName("fan-speed")
	threshold := vento.ParameterByName("humidity-threshold")

	tests := []struct {
		name    string
		param   *vento.Parameter
		payload string
		want    int
		wantErr bool
	}{
		{"bool on", state, "ON", 1, false},
		{"bool off", state, "OFF", 0, false},
		{"bool lowercase", state, "on", 1, false},
		{"bool numeric", state, "1", 1, false},
		{"bool numeric off", state, "0", 0, false},
		{"bool true", state, "true", 1, false},
		{"bool false", state, "FALSE", 0, false},
		{"bool whitespace", state, " ON\n", 1, false},
		{"bool garbage", state, "maybe", 0, true},
		{"bool out of range numeric", state, "2", 0, true},
		{"enum valid", speed, "3", 3, false},
		{"enum invalid member", speed, "9", 0, true},
		{"enum not a number", speed, "fast", 0, true},
		{"int valid", threshold, "60", 60, false},
		{"int below range", threshold, "30", 0, true},
		{"int above range", threshold, "90", 0, true},
		{"int empty", threshold, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.DecodePayload(tt.param, []byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodePayload(%q) = %d, want error", tt.payload, got)
				}
				if !errors.Is(err, ErrInvalidPayload) {
					t.Errorf("error = %v, want ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePayload(%q) error = %v", tt.payload, err)
			}
			if got != tt.want {
				t.Errorf("DecodePayload(%q) = %d, want %d", tt.payload, got, tt.want)
			}
		})
	}
}

func TestEncodePayload(t *testing.T) {
	m := mustMapper(t)
	state := vento.ParameterByName("state")
	speed := vento.ParameterByName("fan-speed")
	humidity := vento.ParameterByName("humidity")

	tests := []struct {
		name  string
		param *vento.Parameter
		value int
		want  string
	}{
		{"bool on", state, 1, "ON"},
		{"bool off", state, 0, "OFF"},
		{"enum", speed, 2, "2"},
		{"int", humidity, 47, "47"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.EncodePayload(tt.param, tt.value); got != tt.want {
				t.Errorf("EncodePayload(%s, %d) = %q, want %q", tt.param.Name, tt.value, got, tt.want)
			}
		})
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	m := mustMapper(t)

	for _, p := range vento.Parameters() {
		if !p.Writable() {
			continue
		}
		values := p.Values
		if p.Kind == vento.KindBool {
			values = []int{0, 1}
		}
		if p.Kind == vento.KindInt {
			values = []int{p.Min, p.Max}
		}
		for _, v := range values {
			payload := m.EncodePayload(p, v)
			got, err := m.DecodePayload(p, []byte(payload))
			if err != nil {
				t.Errorf("%s: DecodePayload(EncodePayload(%d)) error = %v", p.Name, v, err)
				continue
			}
			if got != v {
				t.Errorf("%s: round trip %d -> %q -> %d", p.Name, v, payload, got)
			}
		}
	}

	// Encoded payloads never contain topic separators.
	for _, p := range vento.Parameters() {
		if strings.ContainsAny(p.Name, "/+#") {
			t.Errorf("parameter name %q contains MQTT special characters", p.Name)
		}
	}
}
