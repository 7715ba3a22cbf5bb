package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"majalis/internal/config"
	"majalis/internal/daterange"
	appLog "majalis/internal/log"
	"majalis/internal/pipeline"
)

// Generator is the part of pipeline.Service the handlers use.
type Generator interface {
	Range(preset daterange.Preset) daterange.Range
	Select(ctx context.Context, preset daterange.Preset) (pipeline.Selection, error)
	Generate(ctx context.Context, preset daterange.Preset) (pipeline.Output, error)
}

// Server serves the schedule form, the PDF download and a few operational endpoints.
type Server struct {
	cfg      *config.Config
	gen      Generator
	gatherer prometheus.Gatherer
	router   chi.Router
}

//go:embed templates/form.html.tmpl
var templatesFS embed.FS

var formTmpl = template.Must(template.ParseFS(templatesFS, "templates/form.html.tmpl"))

// NewServer constructs a Server. gatherer may be nil, in which case /metrics is not mounted.
func NewServer(cfg *config.Config, gen Generator, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		cfg:      cfg,
		gen:      gen,
		gatherer: gatherer,
		router:   chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.cfg != nil && s.cfg.BasicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
	)

	r.Get("/", s.handleForm)
	r.Post("/generate", s.handleGenerate)
	r.Get("/api/events", s.handleEvents)
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Majalis", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// requestLogger logs one line per request through the app logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(started).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type presetOption struct {
	Label   string
	Checked bool
}

type formView struct {
	Presets []presetOption
	Summary string
	Error   string
}

func (s *Server) formView(selected daterange.Preset) formView {
	v := formView{Summary: s.gen.Range(selected).Summary()}
	for _, p := range daterange.Presets() {
		v.Presets = append(v.Presets, presetOption{Label: p.String(), Checked: p == selected})
	}
	return v
}

func (s *Server) writeForm(w http.ResponseWriter, status int, v formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTmpl.Execute(w, v); err != nil {
		appLog.Error("failed to write form", err)
	}
}

// handleForm renders the preset selector. ?preset= preselects a choice and
// shows its date span.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	preset, err := daterange.ParsePreset(r.URL.Query().Get("preset"))
	if err != nil {
		v := s.formView(daterange.AllDates)
		v.Error = "Unknown date range. Pick one of the options below."
		s.writeForm(w, http.StatusBadRequest, v)
		return
	}
	s.writeForm(w, http.StatusOK, s.formView(preset))
}

// handleGenerate runs the pipeline for the posted preset and streams the PDF back.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	preset, err := daterange.ParsePreset(r.PostFormValue("preset"))
	if err != nil {
		v := s.formView(daterange.AllDates)
		v.Error = "Unknown date range. Pick one of the options below."
		s.writeForm(w, http.StatusBadRequest, v)
		return
	}

	out, err := s.gen.Generate(r.Context(), preset)
	if err != nil {
		v := s.formView(preset)
		if errors.Is(err, pipeline.ErrFeedUnavailable) {
			v.Error = "The calendar feed could not be loaded, so no PDF was generated. Please try again later."
			s.writeForm(w, http.StatusBadGateway, v)
			return
		}
		appLog.Error("generate failed", err, "preset", preset, "request_id", middleware.GetReqID(r.Context()))
		v.Error = "The schedule could not be generated."
		s.writeForm(w, http.StatusInternalServerError, v)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.PDF)))
	w.Header().Set("X-Event-Count", strconv.Itoa(out.EventCount))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.PDF); err != nil {
		appLog.Error("failed to write pdf", err)
	}
}

// eventsResponse is the JSON shape for /api/events.
type eventsResponse struct {
	Preset     string     `json:"preset"`
	RangeStart string     `json:"range_start,omitempty"`
	RangeEnd   string     `json:"range_end,omitempty"`
	Banner     string     `json:"banner"`
	Events     []eventDTO `json:"events"`
}

type eventDTO struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	Location string    `json:"location,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleEvents returns the events a PDF for ?preset= would contain.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	preset, err := daterange.ParsePreset(r.URL.Query().Get("preset"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}

	sel, err := s.gen.Select(r.Context(), preset)
	if err != nil {
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, errorResponse{Error: pipeline.ErrFeedUnavailable.Error()})
		return
	}

	resp := eventsResponse{
		Preset:     preset.String(),
		RangeStart: sel.Range.Start.String(),
		RangeEnd:   sel.Range.End.String(),
		Banner:     sel.Range.Describe(),
		Events:     make([]eventDTO, 0, len(sel.Events)),
	}
	for _, ev := range sel.Events {
		resp.Events = append(resp.Events, eventDTO{Title: ev.Title, Start: ev.Start, Location: ev.Location})
	}
	render.JSON(w, r, resp)
}
