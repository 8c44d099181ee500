package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL (everything after the
// wildcard). Supports encoded slashes from OpenAPI clients.
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get an indexed document with its content
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ByTag handles GET /api/tags/{tag}.
//
//	@Summary		List documents carrying a tag
//	@Tags			tags
//	@Produce		json
//	@Param			tag	path		string	true	"Tag name"
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/tags/{tag} [get]
func (h *Handler) ByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	paths, err := h.svc.ByTag(r.Context(), tag)
	if err != nil {
		slog.Error("tag query failed", slog.String("tag", tag), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tag":       tag,
		"documents": paths,
	})
}

// ByClassification handles GET /api/classifications/{label}.
//
//	@Summary		List documents with a classification label
//	@Tags			classifications
//	@Produce		json
//	@Param			label	path		string	true	"Classification label"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/classifications/{label} [get]
func (h *Handler) ByClassification(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	if !models.ValidClassification(label) {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown classification label"))
		return
	}
	recs, err := h.svc.ByClassification(r.Context(), label)
	if err != nil {
		slog.Error("classification query failed", slog.String("label", label), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"classification": label,
		"documents":      recs,
	})
}

// ByEntity handles GET /api/entities/{type}/{name}.
//
//	@Summary		List documents mentioning an entity
//	@Tags			entities
//	@Produce		json
//	@Param			type	path		string	true	"Entity type"
//	@Param			name	path		string	true	"Entity name"
//	@Success		200		{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/entities/{type}/{name} [get]
func (h *Handler) ByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "type")
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		name = chi.URLParam(r, "name")
	}
	mentions, err := h.svc.ByEntity(r.Context(), entityType, name)
	if err != nil {
		slog.Error("entity query failed", slog.String("entity", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entity_type": entityType,
		"entity_name": name,
		"mentions":    mentions,
	})
}

// Activity handles GET /api/activity.
//
//	@Summary		List recently modified documents
//	@Tags			activity
//	@Produce		json
//	@Param			since	query		string	false	"RFC 3339 lower bound (default: last 24h)"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/activity [get]
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since := q.Get("since")
	if since == "" {
		since = time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	} else if _, err := time.Parse(time.RFC3339, since); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("since must be RFC 3339"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	recs, err := h.svc.Activity(r.Context(), since, limit)
	if err != nil {
		slog.Error("activity query failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"since":     since,
		"documents": recs,
	})
}

// Health handles GET /health (unauthenticated).
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
