// Package dashboard serves the latest scan results over HTTP: a small
// HTML summary page plus JSON endpoints for tooling.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/wheelhouse/internal/models"
	"github.com/eddiefleurent/wheelhouse/internal/screener"
)

// Snapshot is one completed scan as published to the dashboard.
type Snapshot struct {
	Mode         models.StrategyType             `json:"mode"`
	StartedAt    time.Time                       `json:"started_at"`
	Elapsed      time.Duration                   `json:"elapsed"`
	Results      []models.ScanResult             `json:"results"`
	Top          []models.Candidate              `json:"top"`
	Fundamentals map[string]*models.Fundamentals `json:"fundamentals"`
}

type Server struct {
	router    *chi.Mux
	server    *http.Server
	logger    *logrus.Logger
	port      int
	authToken string

	mu   sync.RWMutex
	snap *Snapshot
}

type Config struct {
	Port      int
	AuthToken string
}

// NewServer creates the dashboard server. Publish a scan with
// SetSnapshot; the server renders whatever was published last.
func NewServer(cfg Config, logger *logrus.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger,
		port:      cfg.Port,
		authToken: cfg.AuthToken,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/", s.handleIndex)
	s.router.Get("/api/results", s.handleResults)
	s.router.Get("/api/top", s.handleTop)
	s.router.Get("/api/fundamentals", s.handleFundamentals)
	s.router.Get("/health", s.handleHealth)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetSnapshot publishes a completed scan.
func (s *Server) SetSnapshot(snap *Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *Server) snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting dashboard server on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"stars": screener.StarRating,
}).Parse(`<!DOCTYPE html>
<html>
<head><title>wheelhouse</title></head>
<body>
<h1>wheelhouse scan</h1>
{{if .}}
<p>mode: {{.Mode}} | started: {{.StartedAt.Format "2006-01-02 15:04:05"}} | top candidates: {{len .Top}}</p>
<table border="1" cellpadding="4">
<tr><th>#</th><th>ticker</th><th>stars</th><th>expiration</th><th>limit</th><th>score</th></tr>
{{range $i, $c := .Top}}
<tr>
<td>{{$i}}</td>
<td>{{$c.Ticker}}</td>
<td>{{stars $c}}</td>
<td>{{$c.Expiry.Format "2006-01-02"}}</td>
<td>{{printf "%.2f" $c.IndicativeLimit}}</td>
<td>{{printf "%.1f" $c.CompositeScore}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>no scan published yet</p>
{{end}}
</body>
</html>`))

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	if err := indexTemplate.Execute(w, s.snapshot()); err != nil {
		s.logger.WithError(err).Error("Failed to execute index template")
	}
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		http.Error(w, "no scan yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, snap.Results)
}

func (s *Server) handleTop(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		http.Error(w, "no scan yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, snap.Top)
}

func (s *Server) handleFundamentals(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		http.Error(w, "no scan yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, snap.Fundamentals)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	s.writeJSON(w, health)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
