package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Checker performs one check of one target and classifies the outcome.
// Implementations never return errors; every failure becomes a result.
type Checker interface {
	Check(ctx context.Context, target string, timeout time.Duration) domain.ProbeResult
}

// drainLimit caps how much of a response body is read so the connection can
// be reused.
const drainLimit = 64 << 10

type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker returns a checker using its own client. The per-call timeout
// passed to Check is the only deadline applied.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

// Check issues a single GET against target. It never panics and never
// retries.
func (h *HTTPChecker) Check(ctx context.Context, target string, timeout time.Duration) (out domain.ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.Unknown()
		}
	}()

	if target == "" || timeout <= 0 {
		return domain.Unknown()
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Unknown()
	}

	start := time.Now()
	resp, err := h.client().Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return resultFor(classify(cctx, err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))

	return domain.Responded(resp.StatusCode, elapsed)
}

// Close releases idle connections held by the client.
func (h *HTTPChecker) Close() {
	if h.Client != nil {
		h.Client.CloseIdleConnections()
	}
}

func (h *HTTPChecker) client() *http.Client {
	if h.Client == nil {
		return http.DefaultClient
	}
	return h.Client
}

func resultFor(kind domain.StatusKind) domain.ProbeResult {
	switch kind {
	case domain.KindTimedOut:
		return domain.TimedOut()
	case domain.KindUnreachable:
		return domain.Unreachable()
	default:
		return domain.Unknown()
	}
}
