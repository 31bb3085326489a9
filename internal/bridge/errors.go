package bridge

import "errors"

// Domain-specific errors for the bridge.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidPayload is returned when an MQTT command payload cannot
	// be translated to a parameter value.
	ErrInvalidPayload = errors.New("bridge: invalid command payload")

	// ErrTopicCollision is returned when the naming convention would
	// assign the same topic to two parameters.
	ErrTopicCollision = errors.New("bridge: topic collision in parameter registry")

	// ErrNotRunning is returned when stopping a bridge that never started.
	ErrNotRunning = errors.New("bridge: not running")
)
