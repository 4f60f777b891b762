package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gnemet/reactgrid"
	"github.com/gnemet/reactgrid/internal/catalog"
)

func newRouter(cat *catalog.Catalog, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/grids", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, cat.List())
	})

	r.Get("/grids/{name}", func(w http.ResponseWriter, r *http.Request) {
		entry, err := cat.Lookup(chi.URLParam(r, "name"))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, reactgrid.ErrUnknownGrid) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		entry.Handler.ServeHTTP(w, r)
	})

	return r
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
