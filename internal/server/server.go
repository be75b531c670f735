// Package server serves the live editor over HTTP: the editor page, a JSON
// API over the session, PDF export and a websocket pushing every committed
// outcome.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/alnah/go-livepreview"
	"github.com/alnah/go-livepreview/internal/assets"
	"github.com/alnah/go-livepreview/internal/gallery"
	"github.com/alnah/go-livepreview/internal/logging"
	"github.com/alnah/go-livepreview/internal/snippet"
)

// MaxBodyBytes bounds request bodies (source, bibliography, image uploads).
const MaxBodyBytes = 16 << 20

const (
	shutdownTimeout = 5 * time.Second
	readTimeout     = 30 * time.Second
)

// Server routes HTTP requests to one session.
type Server struct {
	sess     *livepreview.Session
	logger   *slog.Logger
	metrics  http.Handler
	page     *template.Template
	style    template.CSS
	upgrader websocket.Upgrader
	title    string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for requests and failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithTitle sets the title of the editor page.
func WithTitle(title string) Option {
	return func(s *Server) {
		s.title = title
	}
}

// New creates a server for sess. The editor page template and preview
// stylesheet are loaded from the embedded assets.
func New(sess *livepreview.Session, opts ...Option) (*Server, error) {
	s := &Server{
		sess:   sess,
		logger: logging.NewNop(),
		title:  "Live Preview",
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := assets.LoadTemplate(assets.EditorTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading editor template: %w", err)
	}
	s.page, err = template.New(assets.EditorTemplateName).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing editor template: %w", err)
	}
	css, err := assets.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return nil, fmt.Errorf("loading preview style: %w", err)
	}
	s.style = template.CSS(css) // #nosec G203 -- embedded stylesheet
	return s, nil
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(logging.Middleware(s.logger))

	r.Get("/", s.handlePage)
	r.Get("/ws", s.handleWebSocket)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Put("/source", s.handleSetSource)
		r.Put("/bibliography", s.handleSetBibliography)
		r.Post("/highlight", s.handleHighlight)
		r.Get("/preview", s.handlePreview)
		r.Get("/images", s.handleListImages)
		r.Post("/images", s.handleAddImage)
		r.Delete("/images/{id}", s.handleDeleteImage)
		r.Get("/export.pdf", s.handleExport)
		r.Get("/snippets", s.handleListSnippets)
		r.Post("/snippets/{name}", s.handleApplySnippet)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("preview server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("preview server stopped")
	return nil
}

// ---------------------------------------------------------------------------
// Page
// ---------------------------------------------------------------------------

type snippetButton struct {
	Name  string
	Label string
}

type pageData struct {
	Title       string
	Style       template.CSS
	Snippets    []snippetButton
	Source      string
	Highlighted template.HTML
	Preview     template.HTML
	Error       string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	source := s.sess.Editor.Source()
	current := s.sess.Sink.Current()

	data := pageData{
		Title:       s.title,
		Style:       s.style,
		Source:      source,
		Highlighted: template.HTML(livepreview.Highlight(source)), // #nosec G203 -- escaped by the highlighter
		Error:       current.Message,
	}
	if current.Output != nil {
		data.Preview = template.HTML(current.Output.Markup) // #nosec G203 -- produced by the engine
	}
	for _, t := range snippet.All() {
		data.Snippets = append(data.Snippets, snippetButton{Name: t.Name, Label: t.Title})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("rendering editor page", "error", err)
	}
}

// ---------------------------------------------------------------------------
// Document state
// ---------------------------------------------------------------------------

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readText(w, r)
	if !ok {
		return
	}
	if err := s.sess.Editor.SetSource(r.Context(), body); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetBibliography(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readText(w, r)
	if !ok {
		return
	}
	if err := s.sess.Editor.SetBibliography(r.Context(), body); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readText(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, livepreview.Highlight(body))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newMessage(s.sess.Sink.Current()))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	pdf, err := s.sess.Export(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		var re *livepreview.RenderError
		if errors.As(err, &re) || errors.Is(err, livepreview.ErrEmptySource) {
			status = http.StatusUnprocessableEntity
		}
		s.fail(w, r, status, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="document.pdf"`)
	_, _ = w.Write(pdf)
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

type imageInfo struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Timestamp int64  `json:"timestamp"`
	Snippet   string `json:"snippet"`
}

type imageUpload struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

func infoOf(img gallery.Image) imageInfo {
	return imageInfo{
		ID:        img.ID,
		Filename:  img.Filename,
		Timestamp: img.Timestamp,
		Snippet:   gallery.Snippet(img.ID),
	}
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.sess.Editor.Gallery().List(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	infos := make([]imageInfo, 0, len(images))
	for _, img := range images {
		infos = append(infos, infoOf(img))
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleAddImage(w http.ResponseWriter, r *http.Request) {
	var up imageUpload
	if !s.decodeJSON(w, r, &up) {
		return
	}
	// Accept data URLs as pasted by browsers.
	if _, payload, found := strings.Cut(up.Data, ";base64,"); found {
		up.Data = payload
	}

	img, err := s.sess.Editor.AddImage(r.Context(), up.Data, up.Filename)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, infoOf(img))
	case errors.Is(err, gallery.ErrLimitReached):
		s.fail(w, r, http.StatusConflict, err)
	case errors.Is(err, gallery.ErrEmptyImage), errors.Is(err, gallery.ErrFilename):
		s.fail(w, r, http.StatusBadRequest, err)
	default:
		s.fail(w, r, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	err := s.sess.Editor.DeleteImage(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, gallery.ErrInvalidID):
		s.fail(w, r, http.StatusBadRequest, err)
	case errors.Is(err, gallery.ErrImageNotFound):
		s.fail(w, r, http.StatusNotFound, err)
	default:
		s.fail(w, r, http.StatusInternalServerError, err)
	}
}

// ---------------------------------------------------------------------------
// Snippets
// ---------------------------------------------------------------------------

type snippetRequest struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (s *Server) handleListSnippets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snippet.All())
}

func (s *Server) handleApplySnippet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tmpl, ok := snippet.Lookup(name)
	if !ok {
		s.fail(w, r, http.StatusNotFound, fmt.Errorf("%w: %s", snippet.ErrUnknownTemplate, name))
		return
	}
	var req snippetRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	res, err := tmpl.Apply(req.Text, req.Start, req.End)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Server) readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.fail(w, r, http.StatusRequestEntityTooLarge, err)
		return "", false
	}
	return string(body), true
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"request_id", logging.RequestID(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
