// Package vento implements the UDP control protocol spoken by Blauberg
// Vento-class single-room heat-recovery ventilation units.
//
// This package manages:
//   - The binary frame codec (request encoding, response decoding)
//   - The static parameter registry (codes, names, types, writability)
//   - The device client owning the UDP socket to one unit
//
// # Wire Protocol
//
// The unit listens on UDP port 4000. Every datagram starts with the
// device password in ASCII (factory default "mobile"), which doubles as
// the frame header, and ends with CRLF:
//
//	request:  password | function | argument | 0x0D 0x0A
//	response: password | (code, value[width])... | [0x0D 0x0A]
//
// A read-all request uses function 0x01 with argument 0x00. Writes use
// the parameter code as the function byte and the value as the argument.
// The on/off parameter (0x03) is toggle-only: the argument is ignored and
// the unit flips its current state.
//
// Responses carry a TLV stream of parameter codes, each followed by a
// fixed number of value bytes defined by the vendor protocol. The decoder
// must know the width of every code the unit may emit, including codes
// the bridge does not expose, so it can skip them without losing framing.
//
// # Correlation
//
// The protocol has no sequence numbers. A response is matched to the
// outstanding request by the password echo and the sender's address; the
// client therefore allows only one transaction in flight at a time.
package vento
