package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	"github.com/hamed0406/sitewatch/internal/monitor"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
	"github.com/hamed0406/sitewatch/internal/status"
)

type fixedChecker struct{ r domain.ProbeResult }

func (f fixedChecker) Check(context.Context, string, time.Duration) domain.ProbeResult { return f.r }

func startAPI(t *testing.T, r domain.ProbeResult) (string, *memory.Store) {
	t.Helper()
	log := zap.NewNop()
	store := memory.New()
	svc := status.NewService(log, store, monitor.NewOrchestrator(log, fixedChecker{r}, 0), time.Second)
	srv := httpapi.NewServer(log, store, store, svc, probe.NewDNSDiagnoser(time.Second))
	ts := httptest.NewServer(srv.Router(httpapi.RouterOptions{}))
	t.Cleanup(ts.Close)
	return ts.URL, store
}

func run(t *testing.T, base string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api", base}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_AddListStatusRemove(t *testing.T) {
	base, store := startAPI(t, domain.Responded(503, 40*time.Millisecond))

	out, err := run(t, base, "add", "Example", "example.com")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "https://example.com") {
		t.Fatalf("unexpected add output: %s", out)
	}

	out, err = run(t, base, "list")
	if err != nil || !strings.Contains(out, "Example") {
		t.Fatalf("list: %v\n%s", err, out)
	}

	out, err = run(t, base, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Example", "Erro 503", "503", "40 ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}

	eps, _ := store.ListEndpoints(context.Background())
	out, err = run(t, base, "rm", string(eps[0].ID))
	if err != nil || !strings.Contains(out, "Removed") {
		t.Fatalf("rm: %v\n%s", err, out)
	}
	if _, err := run(t, base, "rm", string(eps[0].ID)); err == nil {
		t.Fatal("second rm should fail")
	}
}

func TestCLI_StatusLatestEmpty(t *testing.T) {
	base, _ := startAPI(t, domain.Unknown())
	out, err := run(t, base, "status", "--latest")
	if err != nil {
		t.Fatalf("status --latest: %v", err)
	}
	if !strings.Contains(out, "Nothing to show.") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestCLI_AddRejectsBadArgs(t *testing.T) {
	base, _ := startAPI(t, domain.Unknown())
	if _, err := run(t, base, "add", "only-name"); err == nil {
		t.Fatal("want arg count error")
	}
	if _, err := run(t, base, "add", "Bad", "ftp://nope"); err == nil {
		t.Fatal("want API validation error")
	}
}

func TestRenderStatuses_TimedOutHasNoLatency(t *testing.T) {
	var buf bytes.Buffer
	renderStatuses(&buf, []domain.ViewRecord{
		domain.Assemble(domain.Endpoint{ID: "1", Name: "Slow", TargetURL: "https://slow.test"}, domain.TimedOut()),
	})
	out := buf.String()
	if !strings.Contains(out, "Lento") || !strings.Contains(out, "> timeout") {
		t.Fatalf("unexpected render: %s", out)
	}
}
