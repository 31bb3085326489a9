// Package bridge translates between the ventilation unit's UDP control
// protocol and MQTT topic semantics.
//
// Two concurrent activities drive it: inbound command messages from the
// broker, and a periodic poll of the unit's status. Both paths share the
// device client, whose transaction lock serialises access to the single
// UDP conversation, so a poll cycle and a command write never interleave
// their datagrams.
//
// # Topic layout
//
//	<base>/<parameter>/set    commands (subscribed, writable parameters)
//	<base>/<parameter>/state  status (published, retained)
//	<base>/service            availability: Online / TimeOut / Service Down
//
// The bridge holds no state across cycles beyond the last published
// value per parameter, kept only to suppress redundant publishes.
package bridge
