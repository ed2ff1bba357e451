package domain

import "time"

type EndpointID string

// Endpoint is a registered target. TargetURL always carries an explicit
// http:// or https:// scheme; stores normalize it on creation.
type Endpoint struct {
	ID        EndpointID `json:"id"`
	Name      string     `json:"name"`
	TargetURL string     `json:"target_url"`
	CreatedAt time.Time  `json:"created_at"`
}

// Observation is the latest probe outcome kept for an endpoint by the
// background rechecker. Only the most recent one per endpoint is stored.
type Observation struct {
	EndpointID  EndpointID `json:"endpoint_id"`
	Kind        StatusKind `json:"status_kind"`
	HTTPStatus  *int       `json:"http_status"`
	LatencyMS   *int64     `json:"latency_ms"`
	DisplayText string     `json:"display_text"`
	CheckedAt   time.Time  `json:"checked_at"`
}

// Result rebuilds the probe result carried by the observation.
func (o Observation) Result() ProbeResult {
	return ProbeResult{
		Kind:        o.Kind,
		HTTPStatus:  o.HTTPStatus,
		LatencyMS:   o.LatencyMS,
		DisplayText: o.DisplayText,
	}
}

func NewObservation(id EndpointID, r ProbeResult, at time.Time) Observation {
	return Observation{
		EndpointID:  id,
		Kind:        r.Kind,
		HTTPStatus:  r.HTTPStatus,
		LatencyMS:   r.LatencyMS,
		DisplayText: r.DisplayText,
		CheckedAt:   at,
	}
}
