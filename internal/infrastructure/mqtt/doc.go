// Package mqtt provides the broker connection for the Vento bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and backoff
//   - Message publishing with QoS and per-call timeouts
//   - Topic subscriptions restored automatically after reconnect
//   - Last Will registration on the bridge service topic
//
// Broker resilience is deliberately delegated to paho's reconnection
// machinery; the bridge never reimplements it. While disconnected,
// publishes fail fast with ErrNotConnected and the caller decides
// whether the value is worth resending (poll cycles simply publish the
// fresh value next interval).
package mqtt
