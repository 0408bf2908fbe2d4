package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/export"
	"github.com/Sternrassler/randomuser-pager/pkg/logging"
	"github.com/Sternrassler/randomuser-pager/pkg/metrics"
	"github.com/Sternrassler/randomuser-pager/pkg/pagination"
	"github.com/Sternrassler/randomuser-pager/pkg/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// listingResponse is the JSON body of GET /users.
type listingResponse struct {
	Records []users.Record `json:"records"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	BatchID int            `json:"batch_id"`
	Gender  string         `json:"gender,omitempty"`
	Prev    string         `json:"prev,omitempty"`
	Next    string         `json:"next,omitempty"`
}

// errorResponse carries the user-facing message only; details stay in the logs.
type errorResponse struct {
	Error string `json:"error"`
}

type listingHandler struct {
	resolver export.PageResolver
	exporter *export.Exporter
	logger   zerolog.Logger
}

func newRouter(resolver export.PageResolver, requestTimeout time.Duration) http.Handler {
	h := &listingHandler{
		resolver: resolver,
		exporter: export.NewExporter(resolver),
		logger:   logging.NewLogger("http"),
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(requestDeadline(requestTimeout))
		r.Method(http.MethodGet, "/users", metrics.Instrument("/users", http.HandlerFunc(h.list)))
		r.Method(http.MethodGet, "/users/export", metrics.Instrument("/users/export", http.HandlerFunc(h.export)))
	})

	return r
}

// list serves a page as JSON; export=1 switches to the CSV download.
func (h *listingHandler) list(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("export") == "1" {
		h.export(w, r)
		return
	}

	req := pagination.RequestFromQuery(r.URL.Query())
	page, err := h.resolver.Resolve(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := listingResponse{
		Records: page.Records,
		Page:    page.Page,
		PerPage: page.PerPage,
		BatchID: page.BatchID,
		Gender:  string(page.Filter),
	}
	if resp.Records == nil {
		resp.Records = []users.Record{}
	}
	if page.HasPrev() {
		resp.Prev = "/users?" + page.QueryFor(page.Page-1).Encode()
	}
	if page.HasNext() {
		resp.Next = "/users?" + page.QueryFor(page.Page+1).Encode()
	}

	writeJSON(w, http.StatusOK, resp)
}

// export serves a page as a CSV attachment. Nothing but an error is sent
// when the page cannot be resolved.
func (h *listingHandler) export(w http.ResponseWriter, r *http.Request) {
	req := pagination.RequestFromQuery(r.URL.Query())

	var buf bytes.Buffer
	if err := h.exporter.Export(r.Context(), req, &buf); err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", export.ContentDisposition)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *listingHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		status = http.StatusGatewayTimeout
	}

	h.logger.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Listing request failed")

	writeJSON(w, status, errorResponse{Error: pagination.GenericErrorMessage})
}

// requestDeadline bounds the request context. Unlike middleware.Timeout it
// writes nothing itself; fail answers 504 with the generic message.
func requestDeadline(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *listingHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
