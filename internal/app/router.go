package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/examdesk/examdesk/internal/accounts"
	"github.com/examdesk/examdesk/internal/auth"
	"github.com/examdesk/examdesk/internal/batches"
	"github.com/examdesk/examdesk/internal/classes"
	"github.com/examdesk/examdesk/internal/courses"
	"github.com/examdesk/examdesk/internal/exams"
	"github.com/examdesk/examdesk/internal/observability"
	"github.com/examdesk/examdesk/internal/orgs"
	"github.com/examdesk/examdesk/internal/questions"
	"github.com/examdesk/examdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Resolver *auth.Resolver

	AuthHandler      *auth.Handler
	OrgsHandler      *orgs.Handler
	AccountsHandler  *accounts.Handler
	ClassesHandler   *classes.Handler
	BatchesHandler   *batches.Handler
	CoursesHandler   *courses.Handler
	QuestionsHandler *questions.Handler
	ExamsHandler     *exams.Handler
	JobsHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Examdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(params.Resolver))
		r.Route("/orgs", params.OrgsHandler.MountRoutes)
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
		r.Route("/classes", params.ClassesHandler.MountRoutes)
		r.Route("/batches", params.BatchesHandler.MountRoutes)
		r.Route("/courses", params.CoursesHandler.MountRoutes)
		r.Route("/questions", params.QuestionsHandler.MountRoutes)
		r.Route("/exams", params.ExamsHandler.MountRoutes)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
