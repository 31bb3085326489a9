package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mhbosch/vento-bridge/internal/vento"
)

// Topic suffixes of the fixed naming convention.
const (
	commandSuffix = "set"
	statusSuffix  = "state"
	serviceLeaf   = "service"
)

// Boolean payload text. Inbound commands also accept "1"/"0" and
// "true"/"false" in any case.
const (
	payloadOn  = "ON"
	payloadOff = "OFF"
)

// Mapper is the bidirectional association between MQTT topics and
// device parameters.
//
// Topics follow the fixed convention:
//
//	<base>/<parameter-name>/set    commands (writable parameters only)
//	<base>/<parameter-name>/state  status (every parameter)
//	<base>/service                 bridge availability
//
// The mapper is built once from the parameter registry and is read-only
// afterwards, so lookups need no locking.
type Mapper struct {
	base           string
	byCommandTopic map[string]*vento.Parameter
}

// NewMapper builds a Mapper for the given base topic prefix.
//
// Construction verifies the bijection invariant: no two parameters may
// share a topic, and no parameter may collide with the service topic.
//
// Returns:
//   - *Mapper: Ready for lookups
//   - error: ErrTopicCollision if the registry breaks the invariant
func NewMapper(base string) (*Mapper, error) {
	m := &Mapper{
		base:           base,
		byCommandTopic: make(map[string]*vento.Parameter),
	}

	seen := make(map[string]string)
	for _, p := range vento.Parameters() {
		status := m.StatusTopic(p)
		if owner, dup := seen[status]; dup {
			return nil, fmt.Errorf("%w: %s and %s both map to %s", ErrTopicCollision, owner, p.Name, status)
		}
		seen[status] = p.Name

		if p.Name == serviceLeaf {
			return nil, fmt.Errorf("%w: parameter %q shadows the service topic", ErrTopicCollision, p.Name)
		}

		if !p.Writable() {
			continue
		}
		command := m.CommandTopic(p)
		if owner, dup := seen[command]; dup {
			return nil, fmt.Errorf("%w: %s and %s both map to %s", ErrTopicCollision, owner, p.Name, command)
		}
		seen[command] = p.Name
		m.byCommandTopic[command] = p
	}

	return m, nil
}

// CommandTopic returns the command topic for a parameter.
//
// Example: blauberg-vento/fan-speed/set
func (m *Mapper) CommandTopic(p *vento.Parameter) string {
	return fmt.Sprintf("%s/%s/%s", m.base, p.Name, commandSuffix)
}

// StatusTopic returns the status topic for a parameter.
//
// Example: blauberg-vento/fan-speed/state
func (m *Mapper) StatusTopic(p *vento.Parameter) string {
	return fmt.Sprintf("%s/%s/%s", m.base, p.Name, statusSuffix)
}

// ServiceTopic returns the bridge availability topic.
//
// Example: blauberg-vento/service
func (m *Mapper) ServiceTopic() string {
	return fmt.Sprintf("%s/%s", m.base, serviceLeaf)
}

// CommandFilter returns the subscription pattern matching all command
// topics under the base prefix.
//
// Pattern: <base>/+/set
func (m *Mapper) CommandFilter() string {
	return fmt.Sprintf("%s/+/%s", m.base, commandSuffix)
}

// ParameterForCommandTopic returns the parameter a command topic
// addresses, or nil when the topic is not a recognised command topic.
// Unrelated MQTT traffic must be ignored, not treated as an error.
func (m *Mapper) ParameterForCommandTopic(topic string) *vento.Parameter {
	return m.byCommandTopic[topic]
}

// DecodePayload translates an MQTT command payload into a parameter value.
//
// Booleans accept ON/OFF, 1/0, and true/false in any case; integers and
// enumerations accept decimal text. The value is validated against the
// parameter's declared range.
//
// Returns:
//   - int: The decoded value
//   - error: ErrInvalidPayload (wrapped with detail)
func (m *Mapper) DecodePayload(p *vento.Parameter, payload []byte) (int, error) {
	text := strings.TrimSpace(string(payload))

	if p.Kind == vento.KindBool {
		switch strings.ToUpper(text) {
		case payloadOn, "1", "TRUE":
			return 1, nil
		case payloadOff, "0", "FALSE":
			return 0, nil
		default:
			return 0, fmt.Errorf("%w: %q is not a boolean for %s", ErrInvalidPayload, text, p.Name)
		}
	}

	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer for %s", ErrInvalidPayload, text, p.Name)
	}
	if !p.ValidValue(value) {
		return 0, fmt.Errorf("%w: %d out of range for %s", ErrInvalidPayload, value, p.Name)
	}
	return value, nil
}

// EncodePayload translates a parameter value into its MQTT payload text.
func (m *Mapper) EncodePayload(p *vento.Parameter, value int) string {
	if p.Kind == vento.KindBool {
		if value != 0 {
			return payloadOn
		}
		return payloadOff
	}
	return strconv.Itoa(value)
}
