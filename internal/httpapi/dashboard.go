package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"latency": func(ms *int64) string {
		if ms == nil {
			return "> timeout"
		}
		return fmt.Sprintf("%d ms", *ms)
	},
}).ParseFS(templateFS, "templates/index.html"))

type dashboardData struct {
	Records []domain.ViewRecord
}

// handleDashboard probes every endpoint and renders the table.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Status.GetLiveStatuses(r.Context())
	if err != nil {
		s.Logger.Error("dashboard_error", zap.Error(err))
		http.Error(w, "could not load statuses", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, dashboardData{Records: recs}); err != nil {
		s.Logger.Error("dashboard_render_error", zap.Error(err))
	}
}

func (s *Server) handleDashboardAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	ep, err := s.Endpoints.AddEndpoint(r.Context(), r.PostForm.Get("name"), r.PostForm.Get("url"))
	if err != nil {
		s.formError(w, "dashboard_add_error", err)
		return
	}
	s.Logger.Info("endpoint_added",
		zap.String("id", string(ep.ID)),
		zap.String("name", ep.Name),
		zap.String("url", ep.TargetURL),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDashboardDelete(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "id"))
	if err := s.Endpoints.DeleteEndpoint(r.Context(), id); err != nil {
		s.formError(w, "dashboard_delete_error", err)
		return
	}
	s.Logger.Info("endpoint_deleted", zap.String("id", string(id)))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) formError(w http.ResponseWriter, event string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error(event, zap.Error(err))
		http.Error(w, "internal error", code)
		return
	}
	s.Logger.Info(event, zap.Error(err))
	http.Error(w, err.Error(), code)
}
