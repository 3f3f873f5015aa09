// Package dashboard serves the browser UI for one bin. It reads everything
// through the API and pushes live state to browsers over a websocket.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/metrics"
)

//go:embed templates/*.html
var templatesFS embed.FS

type navItem struct {
	View  domain.AppView
	Label string
	Path  string
}

var nav = []navItem{
	{domain.ViewDashboard, "Overview", "/"},
	{domain.ViewHistory, "History", "/view/HISTORY"},
	{domain.ViewAssistant, "EcoBot", "/view/ASSISTANT"},
	{domain.ViewSettings, "Settings", "/view/SETTINGS"},
}

type pageData struct {
	Title       string
	View        domain.AppView
	Nav         []navItem
	APIStatus   string
	Flash       string
	Error       string
	Bin         *BinView
	Weekly      []domain.DayCount
	History     []domain.UsageLog
	Assistant   *AssistantInfo
	Maintenance *Maintenance
}

type Server struct {
	router chi.Router
	tmpl   *template.Template
	api    *Client
	hub    *Hub
}

func New(api *Client) *Server {
	funcMap := template.FuncMap{
		"toJSON":      toJSON,
		"statusClass": statusClass,
		"signed": func(n int) string {
			if n > 0 {
				return "+" + itoa(n)
			}
			return itoa(n)
		},
		"pct": func(v float64) string { return fmtFloat(v, 0) + "%" },
	}
	tmpl := template.Must(template.New("base").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html"))

	s := &Server{
		router: chi.NewRouter(),
		tmpl:   tmpl,
		api:    api,
		hub:    NewHub(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws", s.handleWebSocket)

	r.Get("/", s.handleView)
	r.Get("/view/{view}", s.handleView)
	r.Post("/lid", s.handleToggleLid)
	r.Post("/empty", s.handleEmpty)
	r.Post("/chat", s.handleChat)
	r.Post("/reports", s.handleArchive)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run pushes the live state to all browsers every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.hub.Count() == 0 {
				continue
			}
			reqCtx, cancel := context.WithTimeout(ctx, interval)
			state := s.liveState(reqCtx)
			cancel()
			s.hub.Broadcast(envelope{Type: "update", Data: state})
		}
	}
}

func (s *Server) liveState(ctx context.Context) LiveState {
	state := LiveState{Timestamp: time.Now().Unix()}
	bin, err := s.api.Bin(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("api unreachable")
		return state
	}
	state.Online = true
	state.Bin = bin
	if weekly, err := s.api.Weekly(ctx); err == nil {
		state.Weekly = weekly
	}
	return state
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	state := s.liveState(ctx)
	cancel()
	s.hub.Serve(w, r, envelope{Type: "init", Data: state})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": s.status(ctx)})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	view := domain.ParseView(chi.URLParam(r, "view"))
	data := pageData{
		Title:     "EcoBin",
		View:      view,
		Nav:       nav,
		APIStatus: s.status(ctx),
		Flash:     r.URL.Query().Get("msg"),
		Error:     r.URL.Query().Get("err"),
	}

	var err error
	switch view {
	case domain.ViewDashboard:
		if data.Bin, err = s.api.Bin(ctx); err == nil {
			data.Weekly, err = s.api.Weekly(ctx)
		}
	case domain.ViewHistory:
		data.History, err = s.api.History(ctx)
	case domain.ViewAssistant:
		data.Assistant, err = s.api.Assistant(ctx)
	case domain.ViewSettings:
		if data.Bin, err = s.api.Bin(ctx); err == nil {
			data.Maintenance, err = s.api.Maintenance(ctx)
		}
	}
	if err != nil && data.Error == "" {
		log.Warn().Err(err).Str("view", string(view)).Msg("view data unavailable")
		data.Error = err.Error()
	}
	s.render(w, "layout.html", data)
}

func (s *Server) handleToggleLid(w http.ResponseWriter, r *http.Request) {
	if _, err := s.api.ToggleLid(r.Context()); err != nil {
		log.Error().Err(err).Msg("toggle lid failed")
		redirect(w, r, "/", "err", err.Error())
		return
	}
	redirect(w, r, "/", "", "")
}

func (s *Server) handleEmpty(w http.ResponseWriter, r *http.Request) {
	if _, err := s.api.Empty(r.Context()); err != nil {
		log.Error().Err(err).Msg("empty failed")
		redirect(w, r, "/", "err", err.Error())
		return
	}
	redirect(w, r, "/", "msg", "Bin emptied")
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	out, err := s.api.ArchiveReport(r.Context())
	switch {
	case IsUnavailable(err):
		redirect(w, r, "/view/SETTINGS", "err", "Report archive needs cloud services")
	case err != nil:
		log.Error().Err(err).Msg("archive report failed")
		redirect(w, r, "/view/SETTINGS", "err", err.Error())
	default:
		redirect(w, r, "/view/SETTINGS", "msg", "Report archived: "+out.Key)
	}
}

// handleChat proxies the browser's chat turn to the API.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	out, err := s.api.Chat(r.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			status = apiErr.Status
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) status(ctx context.Context) string {
	if err := s.api.Health(ctx); err != nil {
		return "offline"
	}
	return "online"
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, path, key, value string) {
	if key != "" {
		path += "?" + url.Values{key: {value}}.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
