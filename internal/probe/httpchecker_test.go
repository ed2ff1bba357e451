package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("want GET, got %s", r.Method)
		}
		time.Sleep(120 * time.Millisecond)
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	chk := NewHTTPChecker()
	defer chk.Close()
	out := chk.Check(context.Background(), s.URL, 2*time.Second)
	if out.Kind != domain.KindReachable || out.DisplayText != "Online" {
		t.Fatalf("want reachable, got %+v", out)
	}
	if out.HTTPStatus == nil || *out.HTTPStatus != 200 {
		t.Fatalf("want status 200, got %v", out.HTTPStatus)
	}
	if out.LatencyMS == nil || *out.LatencyMS < 120 || *out.LatencyMS > 1500 {
		t.Fatalf("want latency around 120ms, got %v", out.LatencyMS)
	}
}

func TestHTTPChecker_Status404(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer s.Close()

	out := NewHTTPChecker().Check(context.Background(), s.URL, 2*time.Second)
	if out.Kind != domain.KindHTTPError || out.DisplayText != "Erro 404" {
		t.Fatalf("want http error, got %+v", out)
	}
	if out.HTTPStatus == nil || *out.HTTPStatus != 404 {
		t.Fatalf("want status 404, got %v", out.HTTPStatus)
	}
	if out.LatencyMS == nil {
		t.Fatalf("want latency measured on a response")
	}
}

func TestHTTPChecker_HangingServerTimesOut(t *testing.T) {
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer s.Close()
	defer close(release)

	timeout := 150 * time.Millisecond
	start := time.Now()
	out := NewHTTPChecker().Check(context.Background(), s.URL, timeout)
	took := time.Since(start)

	if out.Kind != domain.KindTimedOut || out.DisplayText != "Lento" {
		t.Fatalf("want timed out, got %+v", out)
	}
	if out.LatencyMS != nil || out.HTTPStatus != nil {
		t.Fatalf("timed out result must not carry measurements: %+v", out)
	}
	if took < timeout || took > timeout+time.Second {
		t.Fatalf("check returned after %v, want about %v", took, timeout)
	}
}

func TestHTTPChecker_ConnectionRefusedIsUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	out := NewHTTPChecker().Check(context.Background(), "http://"+addr, 2*time.Second)
	if out.Kind != domain.KindUnreachable || out.DisplayText != "Offline/DNS" {
		t.Fatalf("want unreachable, got %+v", out)
	}
	if out.LatencyMS == nil || *out.LatencyMS != 0 || out.HTTPStatus != nil {
		t.Fatalf("unexpected measurements: %+v", out)
	}
}

func TestHTTPChecker_UnresolvableHostIsUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a resolver")
	}
	// .invalid is reserved and never resolves.
	out := NewHTTPChecker().Check(context.Background(), "https://sitewatch-check.invalid", 3*time.Second)
	if out.Kind != domain.KindUnreachable {
		t.Fatalf("want unreachable, got %+v", out)
	}
}

func TestHTTPChecker_ResolverTimeoutBeforeDeadlineIsUnreachable(t *testing.T) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: network, Err: &net.DNSError{
			Err: "i/o timeout", Name: "example.com", IsTimeout: true,
		}}
	}
	chk := &HTTPChecker{Client: &http.Client{Transport: tr}}

	start := time.Now()
	out := chk.Check(context.Background(), "http://example.com", 5*time.Second)
	if out.Kind != domain.KindUnreachable || out.DisplayText != "Offline/DNS" {
		t.Fatalf("want unreachable, got %+v", out)
	}
	if took := time.Since(start); took > time.Second {
		t.Fatalf("resolver failure should return at once, took %v", took)
	}
}

func TestHTTPChecker_MalformedResponseIsUnknown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, 1024)
			_, _ = c.Read(buf)
			_, _ = c.Write([]byte("NOT-HTTP garbage\r\n\r\n"))
			c.Close()
		}
	}()

	out := NewHTTPChecker().Check(context.Background(), "http://"+ln.Addr().String(), 2*time.Second)
	if out.Kind != domain.KindUnknown || out.DisplayText != "Erro Desconhecido" {
		t.Fatalf("want unknown, got %+v", out)
	}
}

func TestHTTPChecker_BadInputsNeverFail(t *testing.T) {
	chk := NewHTTPChecker()
	for _, c := range []struct {
		target  string
		timeout time.Duration
	}{
		{"", time.Second},
		{"http://example.com", 0},
		{"http://[::1", time.Second},
	} {
		out := chk.Check(context.Background(), c.target, c.timeout)
		if out.Kind != domain.KindUnknown {
			t.Fatalf("Check(%q, %v) want unknown, got %+v", c.target, c.timeout, out)
		}
	}
}
