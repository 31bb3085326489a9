package vento

import (
	"bytes"
	"fmt"
)

// Frame constants.
const (
	// FuncReadAll requests a full status snapshot from the unit.
	FuncReadAll byte = 0x01

	// DefaultPassword is the factory device password. It is transmitted
	// in ASCII as the frame header of every datagram.
	DefaultPassword = "mobile"

	// MaxDatagramSize bounds response reads. The unit's status datagram
	// is well under 128 bytes; anything larger is not this protocol.
	MaxDatagramSize = 256
)

// frameFooter terminates every request frame. The unit usually echoes it
// at the end of responses, but decoding tolerates its absence.
var frameFooter = []byte{0x0D, 0x0A}

// Snapshot maps parameter codes to their reported values.
// Only codes present in the parameter registry are retained.
type Snapshot map[byte]int

// Value returns the snapshot value for a parameter.
func (s Snapshot) Value(p *Parameter) (int, bool) {
	v, ok := s[p.Code]
	return v, ok
}

// EncodeReadAll builds a read-all request frame.
func EncodeReadAll(password string) []byte {
	return encodeFrame(password, FuncReadAll, 0x00)
}

// EncodeWrite builds a write request frame for one parameter.
//
// The value is validated against the parameter's declared type and range
// before encoding. For toggle parameters the argument byte is fixed at
// 0x00 and the value only expresses the caller's intent; the unit flips
// its current state regardless.
//
// Returns:
//   - []byte: Encoded frame ready to send
//   - error: ErrNotWritable or ErrInvalidValue (wrapped with detail)
func EncodeWrite(password string, p *Parameter, value int) ([]byte, error) {
	if !p.Writable() {
		return nil, fmt.Errorf("%w: %s", ErrNotWritable, p.Name)
	}
	if !p.ValidValue(value) {
		return nil, fmt.Errorf("%w: %s=%d", ErrInvalidValue, p.Name, value)
	}

	arg := byte(value)
	if p.Mode == WriteToggle {
		arg = 0x00
	}
	return encodeFrame(password, p.Code, arg), nil
}

// encodeFrame assembles password header + function + argument + CRLF.
func encodeFrame(password string, function, arg byte) []byte {
	buf := make([]byte, 0, len(password)+2+len(frameFooter))
	buf = append(buf, password...)
	buf = append(buf, function, arg)
	buf = append(buf, frameFooter...)
	return buf
}

// DecodeResponse parses a response datagram into a Snapshot.
//
// Decoding is defensive: a wrong password echo, a truncated value run, or
// an unknown parameter code yields ErrDecode rather than a panic or a
// misaligned read. Codes known to the protocol but not exposed in the
// registry are skipped using the width table; a trailing CRLF is ignored.
//
// Parameters:
//   - password: Expected password echo (correlates the reply to our unit)
//   - data: Raw datagram bytes as received
//
// Returns:
//   - Snapshot: Parameter values carried by the response
//   - error: ErrDecode (wrapped with detail) if the datagram is unusable
func DecodeResponse(password string, data []byte) (Snapshot, error) {
	header := []byte(password)
	if len(data) < len(header)+2 {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrDecode, len(data))
	}
	if !bytes.Equal(data[:len(header)], header) {
		return nil, fmt.Errorf("%w: header mismatch (wrong device or password)", ErrDecode)
	}

	snap := make(Snapshot)
	i := len(header)
	for i < len(data) {
		if bytes.Equal(data[i:], frameFooter) {
			break
		}

		code := data[i]
		width, known := responseWidths[code]
		if !known {
			return nil, fmt.Errorf("%w: unknown parameter code 0x%02X at offset %d", ErrDecode, code, i)
		}
		if i+1+width > len(data) {
			return nil, fmt.Errorf("%w: truncated value for code 0x%02X (need %d bytes, have %d)",
				ErrDecode, code, width, len(data)-i-1)
		}

		if p := ParameterByCode(code); p != nil && width == 1 {
			snap[code] = int(data[i+1])
		}
		i += 1 + width
	}

	if len(snap) == 0 {
		return nil, fmt.Errorf("%w: no known parameters in response", ErrDecode)
	}
	return snap, nil
}
