// Package handlers provides HTTP handlers for the SOAP session API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/drfirst/go-soap/internal/api/middleware"
	"github.com/drfirst/go-soap/internal/domain/session"
	"github.com/drfirst/go-soap/internal/observability/metrics"
	"github.com/drfirst/go-soap/internal/soapnote"
	"github.com/drfirst/go-soap/pkg/workerpool"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	store   *session.Store
	exports *ExportQueue
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewSessionHandler creates a new handler. exports may be nil, in which case
// exports are rendered but not delivered.
func NewSessionHandler(store *session.Store, exports *ExportQueue, m *metrics.Metrics, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{
		store:   store,
		exports: exports,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("session-handler"),
	}
}

// Routes returns the handler routes
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Reset)
		r.Post("/staged", h.Stage)
		r.Delete("/staged", h.Unstage)
		r.Get("/draft", h.Draft)
		r.Post("/commits", h.Commit)
		r.Delete("/commits/{commitID}", h.DeleteCommit)
		r.Get("/document", h.Document)
		r.Post("/exports", h.Export)
		r.Get("/exports", h.ListExports)
	})
	return r
}

// CreateRequest is the request body for loading a session
type CreateRequest struct {
	Note string   `json:"note"`
	Logs []string `json:"logs"`
}

// Create handles POST /sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "create_session")
	defer span.End()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.store.Create(req.Note, req.Logs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	span.SetAttributes(
		attribute.String("session_id", view.ID),
		attribute.Int("entries", view.EntryCount))

	h.metrics.SessionsCreated.Inc()
	h.metrics.LogEntriesParsed.Add(float64(view.EntryCount))
	h.metrics.ItemsExtracted.WithLabelValues(string(session.KindMedication)).Add(float64(len(view.Medications)))
	h.metrics.ItemsExtracted.WithLabelValues(string(session.KindOther)).Add(float64(len(view.Orders)))

	h.logger.Debug("session loaded",
		zap.String("session_id", view.ID),
		zap.String("request_id", middleware.GetRequestID(ctx)),
		zap.String("client_id", middleware.GetClientID(ctx)))

	h.writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	var view *session.View
	err := h.store.Do(chi.URLParam(r, "id"), func(s *session.Session) error {
		view = s.View()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// Reset handles DELETE /sessions/{id}
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(chi.URLParam(r, "id")) {
		h.fail(w, r, session.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ItemRequest names one pool item and the section it moves to or from
type ItemRequest struct {
	Kind    session.ItemKind `json:"kind"`
	Name    string           `json:"name"`
	Section string           `json:"section"`
}

// Stage handles POST /sessions/{id}/staged
func (h *SessionHandler) Stage(w http.ResponseWriter, r *http.Request) {
	h.moveItem(w, r, (*session.Session).Stage)
}

// Unstage handles DELETE /sessions/{id}/staged
func (h *SessionHandler) Unstage(w http.ResponseWriter, r *http.Request) {
	h.moveItem(w, r, (*session.Session).Unstage)
}

func (h *SessionHandler) moveItem(w http.ResponseWriter, r *http.Request,
	move func(*session.Session, session.ItemKind, string, soapnote.Section) error) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	section, err := soapnote.ParseSection(req.Section)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var view *session.View
	err = h.store.Do(chi.URLParam(r, "id"), func(s *session.Session) error {
		if err := move(s, req.Kind, req.Name, section); err != nil {
			return err
		}
		view = s.View()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// Draft handles GET /sessions/{id}/draft?problem=<title>.
// A missing problem drafts a new problem.
func (h *SessionHandler) Draft(w http.ResponseWriter, r *http.Request) {
	var draft *session.Draft
	err := h.store.Do(chi.URLParam(r, "id"), func(s *session.Session) error {
		var err error
		draft, err = s.Draft(r.URL.Query().Get("problem"))
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, draft)
}

// CommitRequest is the edited update text for one problem; an empty problem creates one
type CommitRequest struct {
	Problem string `json:"problem"`
	Content string `json:"content"`
}

// CommitResponse carries the new ledger entry and the resulting session
type CommitResponse struct {
	Commit  *session.Commit `json:"commit"`
	Session *session.View   `json:"session"`
}

// Commit handles POST /sessions/{id}/commits
func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "commit")
	defer span.End()

	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	var resp CommitResponse
	err := h.store.Do(id, func(s *session.Session) error {
		c, err := s.Commit(req.Problem, req.Content)
		if err != nil {
			return err
		}
		resp = CommitResponse{Commit: c, Session: s.View()}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		h.fail(w, r, err)
		return
	}

	target := "existing"
	if resp.Commit.IsNew {
		target = "new"
	}
	h.metrics.Commits.WithLabelValues(target).Inc()
	span.SetAttributes(
		attribute.String("session_id", id),
		attribute.Int("commit_id", resp.Commit.ID),
		attribute.Bool("new_problem", resp.Commit.IsNew))

	h.logger.Info("commit recorded",
		zap.String("session_id", id),
		zap.Int("commit_id", resp.Commit.ID),
		zap.String("title", resp.Commit.Title),
		zap.String("request_id", middleware.GetRequestID(ctx)))

	h.writeJSON(w, http.StatusCreated, resp)
}

// DeleteCommitResponse reports whether a commit was removed. An unknown
// commit id leaves the session untouched.
type DeleteCommitResponse struct {
	Deleted bool          `json:"deleted"`
	Session *session.View `json:"session"`
}

// DeleteCommit handles DELETE /sessions/{id}/commits/{commitID}
func (h *SessionHandler) DeleteCommit(w http.ResponseWriter, r *http.Request) {
	commitID, err := strconv.Atoi(chi.URLParam(r, "commitID"))
	if err != nil {
		h.jsonError(w, "commit id must be an integer", http.StatusBadRequest)
		return
	}

	var resp DeleteCommitResponse
	err = h.store.Do(chi.URLParam(r, "id"), func(s *session.Session) error {
		start := time.Now()
		resp.Deleted = s.DeleteCommit(commitID)
		if resp.Deleted {
			h.metrics.CommitsDeleted.Inc()
			h.metrics.RebuildDuration.Observe(time.Since(start).Seconds())
		}
		resp.Session = s.View()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Document handles GET /sessions/{id}/document
func (h *SessionHandler) Document(w http.ResponseWriter, r *http.Request) {
	var doc string
	err := h.store.Do(chi.URLParam(r, "id"), func(s *session.Session) error {
		doc = s.Document()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(doc))
}

// ExportResponse is the response for an export request
type ExportResponse struct {
	ExportID       string `json:"export_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Queued         bool   `json:"queued"`
}

// Export handles POST /sessions/{id}/exports
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	var e *session.DocumentExported
	err := h.store.Do(chi.URLParam(r, "id"), func(s *session.Session) error {
		e = s.Export()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := ExportResponse{ExportID: e.ExportID, IdempotencyKey: e.IdempotencyKey}
	if h.exports == nil {
		h.writeJSON(w, http.StatusOK, resp)
		return
	}
	if err := h.exports.Enqueue(e); err != nil {
		h.metrics.Exports.WithLabelValues("rejected").Inc()
		h.fail(w, r, err)
		return
	}
	resp.Queued = true
	h.writeJSON(w, http.StatusAccepted, resp)
}

// ListExports handles GET /sessions/{id}/exports. Stored exports outlive the session.
func (h *SessionHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		h.jsonError(w, "export store is not configured", http.StatusNotImplemented)
		return
	}
	exports, err := h.exports.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if exports == nil {
		exports = []*session.DocumentExported{}
	}
	h.writeJSON(w, http.StatusOK, exports)
}

// fail maps domain errors to status codes
func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrMissingInput), errors.Is(err, session.ErrInvalidItem):
		code = http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrItemNotFound),
		errors.Is(err, session.ErrProblemNotFound):
		code = http.StatusNotFound
	case errors.Is(err, session.ErrDuplicateTitle):
		code = http.StatusConflict
	case errors.Is(err, workerpool.ErrQueueFull), errors.Is(err, workerpool.ErrStopped):
		code = http.StatusServiceUnavailable
	}

	if code == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		h.jsonError(w, "internal server error", code)
		return
	}
	h.jsonError(w, err.Error(), code)
}

func (h *SessionHandler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *SessionHandler) jsonError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, map[string]string{"error": message})
}
