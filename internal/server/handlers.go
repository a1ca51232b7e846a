package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/morezero/playfab-sdk/pkg/catalog"
	"github.com/morezero/playfab-sdk/pkg/db"
	"github.com/morezero/playfab-sdk/pkg/playfab"
)

// HealthChecks lists the individual checks. Database is nil when no journal is configured.
type HealthChecks struct {
	Comms    bool  `json:"comms"`
	Database *bool `json:"database,omitempty"`
}

// HealthOutput is the /health response.
type HealthOutput struct {
	Status    string       `json:"status"`
	Checks    HealthChecks `json:"checks"`
	Catalog   string       `json:"catalog"`
	Endpoints int          `json:"endpoints"`
	SDK       string       `json:"sdk"`
	Timestamp string       `json:"timestamp"`
}

// EndpointView is one /endpoints entry.
type EndpointView struct {
	API         string `json:"api"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Auth        string `json:"auth"`
	Header      string `json:"header,omitempty"`
	Description string `json:"description,omitempty"`
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", handleReady)
	mux.HandleFunc("/endpoints", s.handleEndpoints())
	mux.HandleFunc("/openapi.json", s.handleOpenAPI())
	mux.HandleFunc("/errors", s.handleErrors())
	return mux
}

// Health checks the COMMS connection and, when configured, the journal database.
func (s *Server) Health(ctx context.Context) *HealthOutput {
	out := &HealthOutput{
		Status:    "healthy",
		Catalog:   s.catalog.Name() + "@" + s.catalog.Version(),
		Endpoints: s.catalog.Len(),
		SDK:       playfab.SDKHeaderValue(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	out.Checks.Comms = s.commsUp != nil && s.commsUp()
	if !out.Checks.Comms {
		out.Status = "unhealthy"
	}
	if s.journal != nil {
		ok := s.journal.Ping(ctx) == nil
		out.Checks.Database = &ok
		if !ok {
			out.Status = "unhealthy"
		}
	}
	return out
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		h := s.Health(ctx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	}
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

func endpointViews(rc *catalog.ResolvedCatalog, api string) []EndpointView {
	views := []EndpointView{}
	for _, d := range rc.List() {
		if api != "" && d.API != api {
			continue
		}
		views = append(views, EndpointView{
			API:         d.API,
			Name:        d.Name,
			Path:        d.Path,
			Auth:        d.Auth.String(),
			Header:      d.Auth.HeaderName(),
			Description: d.Description,
		})
	}
	return views
}

// handleEndpoints lists the descriptor table, optionally filtered by ?api=.
func (s *Server) handleEndpoints() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(endpointViews(s.catalog, r.URL.Query().Get("api")))
	}
}

func (s *Server) handleOpenAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := buildOpenAPISpec(s.catalog, r.URL.Query().Get("api"))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=60")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			slog.Error(fmt.Sprintf("%s - openapi json encode: %v", logPrefix, err))
		}
	}
}

type errorsOutput struct {
	Total  int                 `json:"total"`
	Errors []db.APIErrorRecord `json:"errors"`
}

// handleErrors lists journal entries, newest first. Query: endpoint, error, limit, offset.
func (s *Server) handleErrors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.journal == nil {
			http.Error(w, "error journal is not configured", http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		filter := db.APIErrorFilter{Endpoint: q.Get("endpoint"), ErrorName: q.Get("error")}
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))
		filter.Offset, _ = strconv.Atoi(q.Get("offset"))

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		total, err := s.journal.CountAPIErrors(ctx, filter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		list, err := s.journal.ListAPIErrors(ctx, filter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []db.APIErrorRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(errorsOutput{Total: total, Errors: list})
	}
}

// homePageTemplate is the HTML for the relay home page.
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>PlayFab Relay</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>PlayFab Relay</h1>
  <p class="meta">{{.Health.SDK}} &middot; catalog {{.Health.Catalog}} &middot; <a href="/openapi.json">openapi.json</a></p>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    <p>COMMS: {{if .Health.Checks.Comms}}<span class="stat">OK</span>{{else}}<span class="status-unhealthy">Disconnected</span>{{end}}</p>
    {{if .JournalConfigured}}<p>Journal: {{if .JournalOK}}<span class="stat">OK</span>{{else}}<span class="status-unhealthy">Failed</span>{{end}}</p>{{end}}
    <p>Timestamp: {{.Health.Timestamp}}</p>
  </section>

  <section>
    <h2>Endpoints</h2>
    <p>Total endpoints: <span class="stat">{{.Health.Endpoints}}</span></p>
    <table>
      <thead>
        <tr><th>API</th><th>Name</th><th>Path</th><th>Credential</th></tr>
      </thead>
      <tbody>
        {{range .Endpoints}}
        <tr>
          <td>{{.API}}</td>
          <td>{{.Name}}</td>
          <td>{{.Path}}</td>
          <td>{{.Auth}}{{if .Header}} ({{.Header}}){{end}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Health            *HealthOutput
	Endpoints         []EndpointView
	JournalConfigured bool
	JournalOK         bool
}

// handleHome returns an HTTP handler for the relay home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		data := homeData{Health: s.Health(ctx), Endpoints: endpointViews(s.catalog, "")}
		if dbOK := data.Health.Checks.Database; dbOK != nil {
			data.JournalConfigured = true
			data.JournalOK = *dbOK
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
