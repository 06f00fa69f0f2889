package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-criteria/internal/criteria"
	"github.com/mind-engage/mindengage-criteria/internal/grading"
)

type chartDataset struct {
	Data []int `json:"data"`
}

type gradeDistData struct {
	Labels   []string       `json:"labels"`
	Datasets []chartDataset `json:"datasets"`
}

type summaryResp struct {
	InfoSummary   grading.Summary `json:"info_summary"`
	GradeDistData gradeDistData   `json:"grade_dist_data"`
	MaxMark       float64         `json:"max_mark"`
}

// GET /assignments/{assignmentID}/summary?intervals=20
func SummaryHandler(svc *criteria.Service, results grading.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		intervals := parseIntDefault(r.URL.Query().Get("intervals"), grading.DefaultIntervals)
		if intervals <= 0 || intervals > 100 {
			http.Error(w, "intervals must be 1..100", http.StatusBadRequest)
			return
		}
		list, err := svc.List(r.Context(), aid)
		if err != nil {
			writeError(w, err)
			return
		}
		maxMark := criteria.MaxMark(list, false)
		totals, err := results.CompletedTotals(r.Context(), aid)
		if err != nil {
			writeError(w, err)
			return
		}
		groupings, err := results.GroupingsCount(r.Context(), aid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaryResp{
			InfoSummary: grading.Summarize(totals, maxMark, groupings),
			GradeDistData: gradeDistData{
				Labels:   grading.DistributionLabels(intervals),
				Datasets: []chartDataset{{Data: grading.Distribution(totals, maxMark, intervals)}},
			},
			MaxMark: maxMark,
		})
	}
}

type putResultReq struct {
	Marks    map[int64]float64 `json:"marks"` // criterion id -> mark
	Complete bool              `json:"complete"`
}

// PUT /assignments/{assignmentID}/results/{groupingID}
func PutResultHandler(svc *criteria.Service, results grading.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		gid := strings.TrimSpace(chi.URLParam(r, "groupingID"))
		if gid == "" {
			http.Error(w, "groupingID required", http.StatusBadRequest)
			return
		}
		var req putResultReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		list, err := svc.List(r.Context(), aid)
		if err != nil {
			writeError(w, err)
			return
		}
		view := make([]grading.Criterion, len(list))
		for i, c := range list {
			view[i] = grading.Criterion{ID: c.ID, MaxMark: c.MaxMark}
		}
		res := grading.Result{
			AssignmentID: aid,
			GroupingID:   gid,
			TotalMark:    grading.Subtotal(req.Marks, view),
			State:        grading.StateIncomplete,
		}
		if req.Complete {
			res.State = grading.StateComplete
		}
		if err := results.PutResult(r.Context(), res); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
