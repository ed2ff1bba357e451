package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	severityText = map[domain.Severity]lipgloss.Style{
		domain.SeverityOK:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.SeverityDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func renderEndpoints(w io.Writer, eps []domain.Endpoint) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Registered endpoints (%d):", len(eps))))
	fmt.Fprintln(w)
	for _, ep := range eps {
		fmt.Fprintf(w, "  • %s\n", ep.Name)
		fmt.Fprintf(w, "    URL: %s\n", ep.TargetURL)
		fmt.Fprintf(w, "    %s\n\n", mutedStyle.Render("id "+string(ep.ID)))
	}
}

func renderStatuses(w io.Writer, recs []domain.ViewRecord) {
	nameW := len("NAME")
	for _, r := range recs {
		nameW = max(nameW, lipgloss.Width(r.Name))
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s  %-18s  %-6s  %s", nameW, "NAME", "STATUS", "HTTP", "LATENCY")))
	for _, r := range recs {
		st := severityText[r.Severity]
		status := st.Render(fmt.Sprintf("%-18s", r.DisplayText))
		fmt.Fprintf(w, "%-*s  %s  %-6s  %s\n", nameW, r.Name, status, httpCol(r.HTTPStatus), latencyCol(r.LatencyMS))
	}
}

func renderDNS(w io.Writer, rep probe.DNSReport) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Host:"), rep.Host)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Class:"), rep.Class)
	if len(rep.IPs) > 0 {
		fmt.Fprintf(w, "IPs: %s\n", strings.Join(rep.IPs, ", "))
	}
	if rep.CNAME != "" {
		fmt.Fprintf(w, "CNAME: %s\n", rep.CNAME)
	}
	if len(rep.Nameservers) > 0 {
		fmt.Fprintf(w, "Nameservers: %s\n", strings.Join(rep.Nameservers, ", "))
	}
	if rep.ResolverError != "" {
		fmt.Fprintln(w, mutedStyle.Render("resolver: "+rep.ResolverError))
	}
}

func httpCol(code *int) string {
	if code == nil {
		return "-"
	}
	return fmt.Sprint(*code)
}

func latencyCol(ms *int64) string {
	if ms == nil {
		return "> timeout"
	}
	return fmt.Sprintf("%d ms", *ms)
}
