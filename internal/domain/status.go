package domain

import (
	"fmt"
	"time"
)

// StatusKind is the closed set of probe outcomes.
type StatusKind string

const (
	KindReachable   StatusKind = "reachable"
	KindHTTPError   StatusKind = "http_error"
	KindUnreachable StatusKind = "unreachable"
	KindTimedOut    StatusKind = "timed_out"
	KindUnknown     StatusKind = "unknown"
)

// Severity is the presentation tier derived from a StatusKind.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Severity maps every kind to exactly one tier. Unrecognized kinds are
// treated like Unknown.
func (k StatusKind) Severity() Severity {
	switch k {
	case KindReachable:
		return SeverityOK
	case KindHTTPError:
		return SeverityWarning
	default:
		return SeverityDanger
	}
}

func (k StatusKind) Valid() bool {
	switch k {
	case KindReachable, KindHTTPError, KindUnreachable, KindTimedOut, KindUnknown:
		return true
	}
	return false
}

const (
	TextOnline      = "Online"
	TextTimedOut    = "Lento"
	TextUnreachable = "Offline/DNS"
	TextUnknown     = "Erro Desconhecido"
)

// ProbeResult is the classified outcome of one probe. Values are built by the
// constructors below and are not modified afterwards.
//
// HTTPStatus is nil unless a response was received. LatencyMS is nil for
// TimedOut, where no real measurement exists.
type ProbeResult struct {
	Kind        StatusKind `json:"status_kind"`
	HTTPStatus  *int       `json:"http_status"`
	LatencyMS   *int64     `json:"latency_ms"`
	DisplayText string     `json:"display_text"`
}

// Responded builds the result for a received HTTP response.
func Responded(code int, elapsed time.Duration) ProbeResult {
	ms := roundMillis(elapsed)
	status := code
	if code == 200 {
		return ProbeResult{Kind: KindReachable, HTTPStatus: &status, LatencyMS: &ms, DisplayText: TextOnline}
	}
	return ProbeResult{
		Kind:        KindHTTPError,
		HTTPStatus:  &status,
		LatencyMS:   &ms,
		DisplayText: fmt.Sprintf("Erro %d", code),
	}
}

func TimedOut() ProbeResult {
	return ProbeResult{Kind: KindTimedOut, DisplayText: TextTimedOut}
}

func Unreachable() ProbeResult {
	var zero int64
	return ProbeResult{Kind: KindUnreachable, LatencyMS: &zero, DisplayText: TextUnreachable}
}

func Unknown() ProbeResult {
	var zero int64
	return ProbeResult{Kind: KindUnknown, LatencyMS: &zero, DisplayText: TextUnknown}
}

func roundMillis(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return d.Round(time.Millisecond).Milliseconds()
}
