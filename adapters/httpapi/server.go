// Package httpapi serves run summaries and artifact tables to the external
// dashboard. It serves data only; all visualization happens downstream.
package httpapi

import (
	"encoding/json"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"policypulse/domain/core"
	"policypulse/domain/impact"
	"policypulse/internal"
	"policypulse/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the artifact API.
type Server struct {
	artifactDir string
	runs        ports.RunRepository
	log         *internal.Logger
	router      chi.Router
}

// NewServer builds the artifact API. runs may be nil when persistence is
// disabled; the run endpoints then report 404.
func NewServer(artifactDir string, runs ports.RunRepository, log *internal.Logger) *Server {
	s := &Server{artifactDir: artifactDir, runs: runs, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/runs", s.handleRecentRuns)
	r.Get("/api/runs/{entity}", s.handleEntityRuns)
	r.Get("/artifacts/{name}", s.handleArtifact)
	r.Get("/artifacts/{entity}/{name}", s.handleEntityArtifact)

	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the API on the given port.
func (s *Server) ListenAndServe(port string) error {
	s.log.Info("artifact API listening on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run persistence is not configured", http.StatusNotFound)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := s.runs.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.Error("listing recent runs: %v", err)
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toAPIRuns(records))
}

func (s *Server) handleEntityRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run persistence is not configured", http.StatusNotFound)
		return
	}
	entity, err := core.ParseEntityKey(chi.URLParam(r, "entity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.runs.ListByEntity(r.Context(), entity)
	if err != nil {
		s.log.Error("listing runs for %s: %v", entity, err)
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toAPIRuns(records))
}

// handleArtifact serves a root-level artifact CSV by table name, such as the
// cross-entity comparison.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	s.serveCSV(w, r, tableFileName(chi.URLParam(r, "name")))
}

// handleEntityArtifact serves one entity's artifact CSV. Per-entity tables
// live under <artifactDir>/<entity>/.
func (s *Server) handleEntityArtifact(w http.ResponseWriter, r *http.Request) {
	entity := bareName(chi.URLParam(r, "entity"))
	s.serveCSV(w, r, filepath.Join(entity, tableFileName(chi.URLParam(r, "name"))))
}

// tableFileName sanitizes a table name to a bare file name and defaults the
// extension to .csv.
func tableFileName(raw string) string {
	name := bareName(raw)
	if filepath.Ext(name) == "" {
		name += ".csv"
	}
	return name
}

// bareName reduces a URL path element to a single file name so handlers
// cannot escape the artifact directory. Dotted elements collapse to empty,
// which Stat then rejects.
func bareName(raw string) string {
	name := filepath.Base(raw)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func (s *Server) serveCSV(w http.ResponseWriter, r *http.Request, rel string) {
	path := filepath.Join(s.artifactDir, rel)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "artifact not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}

// apiRun mirrors impact.RunRecord with nullable floats, since NaN effect
// metrics (empty post-period) have no JSON representation.
type apiRun struct {
	ID               string     `json:"id"`
	Entity           string     `json:"entity"`
	PolicyDate       string     `json:"policy_date"`
	AvgEffect        *float64   `json:"avg_effect"`
	TotalEffect      *float64   `json:"total_effect"`
	RSquared         *float64   `json:"r_squared"`
	PostPeriodPoints int        `json:"post_period_points"`
	BestLag          int        `json:"best_lag"`
	BestR2           *float64   `json:"best_r2"`
	BestRMSE         *float64   `json:"best_rmse"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toAPIRuns(records []impact.RunRecord) []apiRun {
	out := make([]apiRun, len(records))
	for i, rec := range records {
		out[i] = apiRun{
			ID:               rec.ID.String(),
			Entity:           rec.Entity.String(),
			PolicyDate:       rec.PolicyDate.Format("2006-01-02"),
			AvgEffect:        nullableFloat(rec.AvgEffect),
			TotalEffect:      nullableFloat(rec.TotalEffect),
			RSquared:         nullableFloat(rec.RSquared),
			PostPeriodPoints: rec.PostPeriodPoints,
			BestLag:          rec.BestLag,
			BestR2:           nullableFloat(rec.BestR2),
			BestRMSE:         nullableFloat(rec.BestRMSE),
			CreatedAt:        rec.CreatedAt,
		}
	}
	return out
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
