// Package httpapi exposes the cache administration endpoints and the cached
// property listing over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krisalay/query-cache/api"
	"github.com/krisalay/query-cache/internal/errs"
	"github.com/krisalay/query-cache/internal/logging"
	"github.com/krisalay/query-cache/internal/properties"
)

const requestIDHeader = "X-Request-ID"

type Handler struct {
	cache    api.Cache
	props    *properties.Service
	gatherer prometheus.Gatherer
	logCtx   context.Context
}

// NewRouter builds the HTTP routes. gatherer may be nil, in which case
// /metrics is not mounted.
func NewRouter(ctx context.Context, c api.Cache, props *properties.Service, gatherer prometheus.Gatherer) http.Handler {
	h := &Handler{
		cache:    c,
		props:    props,
		gatherer: gatherer,
		logCtx:   logging.WithAttrs(ctx, slog.String("component", "httpapi")),
	}

	r := chi.NewRouter()
	r.Use(h.requestContext)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Delete("/", h.clear)
		r.Delete("/{key}", h.invalidate)
	})
	r.Post("/session/end", h.endSession)

	r.Route("/owners/{owner}/properties", func(r chi.Router) {
		r.Get("/", h.listProperties)
		r.Post("/", h.createProperty)
		r.Delete("/{id}", h.deleteProperty)
	})

	return r
}

// requestContext tags every request with an ID and a logger carrying it.
func (h *Handler) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := logging.WithLogger(r.Context(), logging.Logger(h.logCtx))
		ctx = logging.WithAttrs(ctx, append(logging.Attrs(h.logCtx),
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)...)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.Debug(ctx, "request served",
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	key, err := pathParam(r, "key")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.cache.Invalidate(key)
	logging.Info(r.Context(), "cache key invalidated", slog.String("key", key))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	logging.Info(r.Context(), "cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	logging.Info(r.Context(), "session ended, cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	owner, err := pathParam(r, "owner")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list := h.props.List
	if r.URL.Query().Get("refresh") == "true" {
		list = h.props.Refresh
	}

	rows, err := list(r.Context(), owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type createPropertyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *Handler) createProperty(w http.ResponseWriter, r *http.Request) {
	owner, err := pathParam(r, "owner")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req createPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p := &properties.Property{
		OwnerID: owner,
		Name:    req.Name,
		Address: req.Address,
	}
	if err := h.props.Create(r.Context(), p); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) deleteProperty(w http.ResponseWriter, r *http.Request) {
	owner, err := pathParam(r, "owner")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.props.Delete(r.Context(), owner, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, properties.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, properties.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logging.Error(r.Context(), "request failed", slog.Any("err", errs.Loggable(err)))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// pathParam returns a route parameter decoded. chi matches on RawPath when the
// request escapes a reserved character such as %2F, and the parameter is then
// still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return "", errs.Wrapf(err, "path parameter %s", name)
	}
	return decoded, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
