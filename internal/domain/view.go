package domain

// ViewRecord is an endpoint joined with a probe result, ready for display.
// It is rebuilt on every request.
type ViewRecord struct {
	ID        EndpointID `json:"id"`
	Name      string     `json:"name"`
	TargetURL string     `json:"target_url"`
	ProbeResult
	Severity Severity `json:"severity"`
}

// Assemble copies the endpoint identity and flattens the result next to it.
func Assemble(e Endpoint, r ProbeResult) ViewRecord {
	return ViewRecord{
		ID:          e.ID,
		Name:        e.Name,
		TargetURL:   e.TargetURL,
		ProbeResult: r,
		Severity:    r.Kind.Severity(),
	}
}
