// Package server exposes the term edit screen and a small JSON API over
// HTTP.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/termmeta/internal/hooks"
	"github.com/mesh-intelligence/termmeta/internal/request"
	"github.com/mesh-intelligence/termmeta/internal/taxonomy"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// AsyncHeader marks a request as asynchronous when set to AsyncHeaderValue.
const (
	AsyncHeader      = "X-Requested-With"
	AsyncHeaderValue = "XMLHttpRequest"
)

const shutdownTimeout = 5 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Server serves the admin screens and the term API.
type Server struct {
	terms          *taxonomy.Service
	hooks          *hooks.Registry
	unfilteredHTML bool
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithUnfilteredHTML grants every request the unfiltered-HTML capability.
func WithUnfilteredHTML(allow bool) Option {
	return func(s *Server) { s.unfilteredHTML = allow }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a Server over terms; reg supplies the edit screen sections.
func New(terms *taxonomy.Service, reg *hooks.Registry, opts ...Option) *Server {
	s := &Server{
		terms:  terms,
		hooks:  reg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/{taxonomy}", s.handleListPage)
	mux.HandleFunc("GET /admin/{taxonomy}/{id}", s.handleEditPage)
	mux.HandleFunc("POST /admin/{taxonomy}/{id}", s.handleEdit)
	mux.HandleFunc("POST /admin/{taxonomy}/{id}/delete", s.handleDelete)
	mux.HandleFunc("GET /api/{taxonomy}", s.handleListTerms)
	mux.HandleFunc("GET /api/{taxonomy}/{id}", s.handleGetTerm)
	mux.HandleFunc("POST /api/{taxonomy}", s.handleCreateTerm)
	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down admin server: %w", err)
	}
	s.logger.Info("admin server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// requestContext attaches the request flags the term handlers look at.
func (s *Server) requestContext(r *http.Request, action string) context.Context {
	info := request.Info{
		Action:         action,
		Async:          r.Header.Get(AsyncHeader) == AsyncHeaderValue,
		UnfilteredHTML: s.unfilteredHTML,
	}
	return request.With(r.Context(), info)
}

type listPage struct {
	Title    string
	Taxonomy types.Taxonomy
	Terms    []*types.Term
}

type editPage struct {
	Title    string
	Taxonomy types.Taxonomy
	Term     *types.Term
	Sections template.HTML
}

func (s *Server) handleListPage(w http.ResponseWriter, r *http.Request) {
	tax, err := s.terms.Taxonomy(r.PathValue("taxonomy"))
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	terms, err := s.terms.List(r.Context(), tax.Name)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.render(w, "list", listPage{Title: tax.Label(), Taxonomy: tax, Terms: terms})
}

func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	tax, term, err := s.lookup(r.Context(), r)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	var sections bytes.Buffer
	if err := s.hooks.RenderEditSections(&sections, term, tax); err != nil {
		s.logger.Error("rendering edit sections", "term_id", term.ID, "error", err)
		http.Error(w, "failed to render edit screen", http.StatusInternalServerError)
		return
	}
	s.render(w, "edit", editPage{
		Title:    "Edit " + tax.Label(),
		Taxonomy: tax,
		Term:     term,
		// Sections are produced by html/template and already escaped.
		Sections: template.HTML(sections.String()),
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	ctx := s.requestContext(r, r.PostForm.Get("action"))
	tax, term, err := s.lookup(ctx, r)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	if v, ok := r.PostForm["name"]; ok {
		term.Name = strings.TrimSpace(v[0])
	}
	if v, ok := r.PostForm["slug"]; ok {
		term.Slug = v[0]
	}
	if v, ok := r.PostForm["description"]; ok {
		term.Description = v[0]
	}
	if err := s.terms.Update(ctx, term, r.PostForm); err != nil {
		s.respondWithError(w, err)
		return
	}
	if request.IsAsync(ctx) {
		s.respondWithJSON(w, http.StatusOK, term)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/admin/%s/%d", tax.Name, term.ID), http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	taxName := r.PathValue("taxonomy")
	ctx := s.requestContext(r, "delete-tag")
	if err := s.terms.Delete(ctx, taxName, id); err != nil {
		s.respondWithError(w, err)
		return
	}
	if request.IsAsync(ctx) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/admin/"+taxName, http.StatusSeeOther)
}

func (s *Server) handleListTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := s.terms.List(r.Context(), r.PathValue("taxonomy"))
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, terms)
}

func (s *Server) handleGetTerm(w http.ResponseWriter, r *http.Request) {
	_, term, err := s.lookup(r.Context(), r)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, term)
}

type createTermRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// handleCreateTerm runs as the asynchronous add-term action, so the term
// it returns is not decorated.
func (s *Server) handleCreateTerm(w http.ResponseWriter, r *http.Request) {
	var req createTermRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}
	ctx := request.With(r.Context(), request.Info{
		Action:         request.ActionAddTerm,
		Async:          true,
		UnfilteredHTML: s.unfilteredHTML,
	})
	term, err := s.terms.Create(ctx, r.PathValue("taxonomy"), strings.TrimSpace(req.Name), req.Slug, req.Description)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusCreated, term)
}

func (s *Server) lookup(ctx context.Context, r *http.Request) (types.Taxonomy, *types.Term, error) {
	tax, err := s.terms.Taxonomy(r.PathValue("taxonomy"))
	if err != nil {
		return types.Taxonomy{}, nil, err
	}
	id, err := parseID(r)
	if err != nil {
		return types.Taxonomy{}, nil, err
	}
	term, err := s.terms.Get(ctx, tax.Name, id)
	if err != nil {
		return types.Taxonomy{}, nil, err
	}
	return tax, term, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, types.ErrInvalidID
	}
	return id, nil
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("rendering page", "page", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, taxonomy.ErrUnknownTaxonomy), errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidID), errors.Is(err, types.ErrInvalidName), errors.Is(err, types.ErrInvalidData):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondWithJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding JSON response", "error", err)
	}
}
