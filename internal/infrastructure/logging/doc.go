// Package logging provides structured logging for the Vento bridge.
//
// It wraps log/slog with level parsing, JSON/text handlers, optional
// file output, and service/version default fields.
package logging
