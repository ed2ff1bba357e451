package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/status"
)

type Server struct {
	Logger    *zap.Logger
	Endpoints repo.EndpointStore
	Results   repo.ObservationStore
	Status    *status.Service
	DNS       *probe.DNSDiagnoser
}

func NewServer(l *zap.Logger, es repo.EndpointStore, rs repo.ObservationStore, svc *status.Service, dns *probe.DNSDiagnoser) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Endpoints: es, Results: rs, Status: svc, DNS: dns}
}

// RouterOptions carries the edge settings of the router.
type RouterOptions struct {
	AllowedOrigins []string // empty = allow all
	StatusRPM      int      // live status requests/min per client; 0 disables
	StatusBurst    int
	TrustedProxies []netip.Prefix // peers whose X-Forwarded-For is honored
}

func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	if len(opts.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	live := apimw.RateLimit(opts.StatusRPM, opts.StatusBurst, opts.TrustedProxies)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/endpoints", s.handleListEndpoints)
		r.Post("/endpoints", s.handleAddEndpoint)
		r.Delete("/endpoints/{id}", s.handleDeleteEndpoint)
		r.Get("/endpoints/{id}/dns", s.handleDNS)
		r.With(live).Get("/status", s.handleLiveStatus)
		r.Get("/status/latest", s.handleLatestStatus)
	})

	// dashboard
	r.With(live).Get("/", s.handleDashboard)
	r.Post("/endpoints", s.handleDashboardAdd)
	r.Post("/endpoints/{id}/delete", s.handleDashboardDelete)

	return r
}

type addPayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) handleAddEndpoint(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	ep, err := s.Endpoints.AddEndpoint(r.Context(), p.Name, p.URL)
	if err != nil {
		s.fail(w, "add_endpoint_error", err)
		return
	}
	s.Logger.Info("endpoint_added",
		zap.String("id", string(ep.ID)),
		zap.String("name", ep.Name),
		zap.String("url", ep.TargetURL),
	)
	writeJSON(w, http.StatusCreated, ep)
}

func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	eps, err := s.Endpoints.ListEndpoints(r.Context())
	if err != nil {
		s.fail(w, "list_endpoints_error", err)
		return
	}
	writeJSON(w, http.StatusOK, eps)
}

func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "id"))
	if err := s.Endpoints.DeleteEndpoint(r.Context(), id); err != nil {
		s.fail(w, "delete_endpoint_error", err)
		return
	}
	s.Logger.Info("endpoint_deleted", zap.String("id", string(id)))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLiveStatus(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Status.GetLiveStatuses(r.Context())
	if err != nil {
		s.fail(w, "live_status_error", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleLatestStatus(w http.ResponseWriter, r *http.Request) {
	recs, err := status.LatestStatuses(r.Context(), s.Endpoints, s.Results)
	if err != nil {
		s.fail(w, "latest_status_error", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleDNS(w http.ResponseWriter, r *http.Request) {
	ep, err := s.Endpoints.GetEndpoint(r.Context(), domain.EndpointID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, "dns_lookup_error", err)
		return
	}
	rep := s.DNS.Diagnose(r.Context(), ep.TargetURL)
	s.Logger.Info("dns_check",
		zap.String("host", rep.Host),
		zap.String("class", rep.Class),
		zap.Strings("nameservers", rep.Nameservers),
		zap.String("cname", rep.CNAME),
		zap.String("resolver_error", rep.ResolverError),
	)
	writeJSON(w, http.StatusOK, rep)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, event string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error(event, zap.Error(err))
		writeError(w, code, "internal error")
		return
	}
	s.Logger.Info(event, zap.Error(err))
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
