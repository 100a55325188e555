// ABOUTME: Web UI server with embedded templates
// ABOUTME: Read-only compliance dashboard plus alert acknowledgement over HTTP
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/governance"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/viz"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	svc       *governance.Service
	templates *template.Template
	logger    *log.Logger
	mux       *http.ServeMux
}

func NewServer(svc *governance.Service, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	funcMap := template.FuncMap{
		"when": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"day":  func(t time.Time) string { return t.Format("2006-01-02") },
		"pct":  func(f float64) string { return fmt.Sprintf("%.1f", f) },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{svc: svc, templates: tmpl, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /scorecards", s.handleScorecards)
	s.mux.HandleFunc("GET /scorecards/{user}", s.handleScorecard)
	s.mux.HandleFunc("GET /alerts", s.handleAlerts)
	s.mux.HandleFunc("POST /alerts/{id}/ack", s.handleAck)
	s.mux.HandleFunc("GET /graphs", s.handleGraphs)

	// Partials for HTMX
	s.mux.HandleFunc("GET /partials/graph", s.handleGraphPartial)

	s.mux.HandleFunc("GET /api/scorecards", s.handleScorecardsJSON)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting web server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := viz.GenerateDashboardStats(r.Context(), s.svc.Scorecards(), s.svc.Alerts(), s.svc.DefaultPortal(), s.svc.ComplianceThreshold())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "dashboard", map[string]any{
		"Title": "Dashboard",
		"Stats": stats,
	})
}

func (s *Server) handleScorecards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.Scorecards().GetAllScorecards(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "scorecards", map[string]any{
		"Title":      "Scorecards",
		"Scorecards": cards,
		"Threshold":  s.svc.ComplianceThreshold(),
	})
}

func (s *Server) handleScorecard(w http.ResponseWriter, r *http.Request) {
	sc, err := s.svc.Scorecards().GetScorecard(r.Context(), r.PathValue("user"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sc == nil {
		http.NotFound(w, r)
		return
	}

	s.renderTemplate(w, "scorecard", map[string]any{
		"Title":     sc.UserID,
		"Scorecard": sc,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	filter := alerts.Filter{Severity: r.URL.Query().Get("severity")}
	if r.URL.Query().Get("unacked") != "" {
		unacked := false
		filter.Acknowledged = &unacked
	}

	var list []*models.GovernanceAlert
	var err error
	if user := r.URL.Query().Get("user"); user != "" {
		list, err = s.svc.Alerts().GetUserAlerts(r.Context(), user, filter)
	} else {
		list, err = s.svc.Alerts().GetPortalAlerts(r.Context(), s.svc.DefaultPortal(), filter)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "alerts", map[string]any{
		"Title":  "Alerts",
		"Alerts": list,
	})
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	by := r.FormValue("by")
	if by == "" {
		http.Error(w, "by is required", http.StatusBadRequest)
		return
	}

	ok, err := s.svc.Alerts().AcknowledgeAlert(r.Context(), r.PathValue("id"), by)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	if _, err := fmt.Fprintf(w, `<td class="ack">✓ %s</td>`, template.HTMLEscapeString(by)); err != nil {
		s.logger.Warn("error writing response", "err", err)
	}
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "graphs", map[string]any{
		"Title": "Gates",
		"Types": []models.ObjectType{models.ObjectContact, models.ObjectDeal},
	})
}

func (s *Server) handleGraphPartial(w http.ResponseWriter, r *http.Request) {
	objectType, err := models.ParseObjectType(r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	graph, err := viz.GenerateRuleGraph(r.Context(), s.svc.Engine().Catalog(), objectType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "graph-partial", map[string]any{
		"DOT":   graph.DOT,
		"Nodes": graph.Nodes,
		"Edges": graph.Edges,
	})
}

func (s *Server) handleScorecardsJSON(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.Scorecards().GetAllScorecards(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cards == nil {
		cards = []*models.RepScorecard{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cards); err != nil {
		s.logger.Warn("error writing response", "err", err)
	}
}
