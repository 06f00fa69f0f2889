package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-criteria/internal/criteria"
	"github.com/mind-engage/mindengage-criteria/internal/storage"
)

// GET /assignments/{assignmentID}/criteria
func ListCriteriaHandler(svc *criteria.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		list, err := svc.List(r.Context(), aid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"criteria": list,
			"max_mark": criteria.MaxMark(list, false),
		})
	}
}

type createCriterionReq struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	MaxMark     float64          `json:"max_mark"`
	Description string           `json:"description"`
	Bonus       bool             `json:"bonus"`
	TAVisible   *bool            `json:"ta_visible"`
	PeerVisible *bool            `json:"peer_visible"`
	Levels      []criteria.Level `json:"levels"`
}

// POST /assignments/{assignmentID}/criteria
func CreateCriterionHandler(svc *criteria.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		var req createCriterionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		pol := svc.Policy()
		c := criteria.Criterion{
			AssignmentID: aid,
			Name:         req.Name,
			Kind:         criteria.Kind(req.Type),
			MaxMark:      req.MaxMark,
			Description:  req.Description,
			Bonus:        req.Bonus,
			TAVisible:    pol.DefaultTAVisible,
			PeerVisible:  pol.DefaultPeerVisible,
			Levels:       req.Levels,
		}
		if req.TAVisible != nil {
			c.TAVisible = *req.TAVisible
		}
		if req.PeerVisible != nil {
			c.PeerVisible = *req.PeerVisible
		}
		created, err := svc.Create(r.Context(), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// GET /criteria/{criterionID}
func GetCriterionHandler(svc *criteria.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "criterionID")
		if !ok {
			http.Error(w, "criterionID required", http.StatusBadRequest)
			return
		}
		c, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// PATCH /criteria/{criterionID}
func UpdateCriterionHandler(svc *criteria.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "criterionID")
		if !ok {
			http.Error(w, "criterionID required", http.StatusBadRequest)
			return
		}
		var p criteria.Patch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		c, err := svc.Update(r.Context(), id, p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DELETE /criteria/{criterionID}
func DeleteCriterionHandler(svc *criteria.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "criterionID")
		if !ok {
			http.Error(w, "criterionID required", http.StatusBadRequest)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type uploadResp struct {
	Success      bool     `json:"success"`
	Count        int      `json:"count"`
	Errors       []string `json:"errors"`
	ErrorMessage string   `json:"error_message,omitempty"`
	ArchiveKey   string   `json:"archive_key,omitempty"`
}

// POST /assignments/{assignmentID}/criteria/upload
// multipart upload_file=<yaml>, or the YAML document as the raw body.
func UploadCriteriaHandler(svc *criteria.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		if _, err := svc.Assignment(r.Context(), aid); err != nil {
			writeError(w, err)
			return
		}
		data, err := readDocument(w, r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errDocumentTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		var archived string
		if bs != nil {
			if archived, err = storage.ArchiveCriteria(r.Context(), bs, aid, bytes.NewReader(data)); err != nil {
				slog.Warn("criteria upload not archived", "assignment_id", aid, "err", err)
			}
		}

		res, err := svc.Import(r.Context(), aid, data)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				slog.Error("criteria import failed", "assignment_id", aid, "err", err)
				http.Error(w, "internal error", status)
				return
			}
			writeJSON(w, status, uploadResp{Errors: []string{}, ErrorMessage: err.Error(), ArchiveKey: archived})
			return
		}
		writeJSON(w, http.StatusOK, uploadResp{
			Success:      res.Summary.Count > 0,
			Count:        res.Summary.Count,
			Errors:       res.ErrorNames(),
			ErrorMessage: res.ErrorMessage(),
			ArchiveKey:   archived,
		})
	}
}

var errDocumentTooLarge = fmt.Errorf("document larger than %d bytes", maxDocumentBytes)

func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("upload_file")
		if err != nil {
			if tooLarge(err) {
				return nil, errDocumentTooLarge
			}
			return nil, errors.New("upload_file required")
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(r.Body)
	if tooLarge(err) {
		return nil, errDocumentTooLarge
	}
	return data, err
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// GET /assignments/{assignmentID}/criteria/download
func DownloadCriteriaHandler(svc *criteria.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		a, err := svc.Assignment(r.Context(), aid)
		if err != nil {
			writeError(w, err)
			return
		}
		doc, err := svc.Export(r.Context(), aid)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.ShortIdentifier+"_criteria.yml"))
		_, _ = w.Write(doc)
	}
}

// POST /assignments/{assignmentID}/criteria/positions  {"criterion":[3,1,2]}
func ReorderCriteriaHandler(svc *criteria.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		var req struct {
			Criterion []int64 `json:"criterion"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := svc.Reorder(r.Context(), aid, req.Criterion); err != nil {
			if errors.Is(err, criteria.ErrCriteriaNotFound) {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "criteria_not_found"})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// PUT /assignments/{assignmentID}  {"short_identifier":"A1","description":"..."}
func PutAssignmentHandler(svc *criteria.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aid, ok := idParam(r, "assignmentID")
		if !ok {
			http.Error(w, "assignmentID required", http.StatusBadRequest)
			return
		}
		var a criteria.Assignment
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a.ID = aid
		out, err := svc.PutAssignment(r.Context(), a)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
