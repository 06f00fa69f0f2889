package http

import (
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/mindengage-criteria/internal/sync"
)

// GET /events?since=<offset>&limit=<n>
func ListEventsHandler(repo *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		events, err := repo.Since(r.Context(), since, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}
