package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-criteria/internal/storage"
)

// MountCriteriaUploads serves the archived criteria documents of an
// assignment. Mount under /assignments/{assignmentID}/criteria/uploads.
func MountCriteriaUploads(r chi.Router, bs storage.BlobStore) {
	// GET .../uploads -> archived keys, oldest name first
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		keys, err := bs.List(r.Context(), storage.CriteriaPrefix(aid))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"uploads": keys})
	})

	// GET .../uploads/{name}
	r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		name := chi.URLParam(r, "name")
		if name == "" || strings.ContainsAny(name, `/\`) {
			http.Error(w, "bad name", http.StatusBadRequest)
			return
		}
		rc, err := bs.Get(r.Context(), storage.CriteriaPrefix(aid)+name)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = io.Copy(w, rc)
	})
}
