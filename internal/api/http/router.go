package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-criteria/internal/auth/middleware"
	"github.com/mind-engage/mindengage-criteria/internal/criteria"
	"github.com/mind-engage/mindengage-criteria/internal/grading"
	"github.com/mind-engage/mindengage-criteria/internal/rbac"
	"github.com/mind-engage/mindengage-criteria/internal/storage"
	syncx "github.com/mind-engage/mindengage-criteria/internal/sync"
)

type Deps struct {
	Auth     *authmw.AuthService
	Criteria *criteria.Service
	Results  grading.ResultStore
	Blobs    storage.BlobStore // optional
	Events   *syncx.EventRepo  // optional
	Ready    func() error      // optional readiness probe
}

// Mount registers the public and JWT-protected routes on r.
func Mount(r chi.Router, d Deps, localLogin bool) {
	if localLogin {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermCriteriaManage)).
			Put("/assignments/{assignmentID}", PutAssignmentHandler(d.Criteria))

		pr.Route("/assignments/{assignmentID}/criteria", func(cr chi.Router) {
			cr.With(rbac.RequireAny(rbac.PermCriteriaView, rbac.PermCriteriaManage)).
				Get("/", ListCriteriaHandler(d.Criteria))
			cr.With(rbac.Require(rbac.PermCriteriaManage)).
				Post("/", CreateCriterionHandler(d.Criteria))
			cr.With(rbac.Require(rbac.PermCriteriaManage)).
				Post("/upload", UploadCriteriaHandler(d.Criteria, d.Blobs))
			cr.With(rbac.RequireAny(rbac.PermCriteriaView, rbac.PermCriteriaManage)).
				Get("/download", DownloadCriteriaHandler(d.Criteria))
			cr.With(rbac.Require(rbac.PermCriteriaManage)).
				Post("/positions", ReorderCriteriaHandler(d.Criteria))
			if d.Blobs != nil {
				cr.With(rbac.Require(rbac.PermCriteriaManage)).
					Route("/uploads", func(ur chi.Router) { MountCriteriaUploads(ur, d.Blobs) })
			}
		})

		pr.With(rbac.RequireAny(rbac.PermCriteriaView, rbac.PermCriteriaManage)).
			Get("/criteria/{criterionID}", GetCriterionHandler(d.Criteria))
		pr.With(rbac.Require(rbac.PermCriteriaManage)).
			Patch("/criteria/{criterionID}", UpdateCriterionHandler(d.Criteria))
		pr.With(rbac.Require(rbac.PermCriteriaManage)).
			Delete("/criteria/{criterionID}", DeleteCriterionHandler(d.Criteria))

		pr.With(rbac.Require(rbac.PermStatsView)).
			Get("/assignments/{assignmentID}/summary", SummaryHandler(d.Criteria, d.Results))
		pr.With(rbac.Require(rbac.PermResultsManage)).
			Put("/assignments/{assignmentID}/results/{groupingID}", PutResultHandler(d.Criteria, d.Results))

		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventsView)).
				Get("/events", ListEventsHandler(d.Events))
		}
	})
}
