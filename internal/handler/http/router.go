package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

type RouterOptions struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string

	// Redis backs the Idempotency-Key middleware; nil disables it.
	Redis *redis.Client
}

func NewRouter(
	opts RouterOptions,
	payrollHandler PayrollHandler,
	liabilityHandler LiabilityHandler,
	salaryListHandler SalaryListHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{middleware.ReplayedHeader},
		MaxAge:           300,
	}))

	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  opts.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(opts.Redis, idempotencyTTL))

		r.Route("/employees/{employeeId}", func(r chi.Router) {
			r.Get("/liabilities", liabilityHandler.ListByEmployee)
			r.Get("/liabilities/outstanding", liabilityHandler.ListOutstanding)
			r.Get("/allocation-plan", payrollHandler.ProposePlan)
			r.Get("/payroll-runs", payrollHandler.ListByEmployee)
		})

		r.Route("/liabilities", func(r chi.Router) {
			r.Post("/", liabilityHandler.Create)
			r.Get("/{id}", liabilityHandler.Get)
			r.Delete("/{id}", liabilityHandler.Delete)
		})

		r.Route("/payroll-runs", func(r chi.Router) {
			r.Post("/", payrollHandler.Create)
			r.Post("/preview", payrollHandler.Preview)
			r.Get("/draft", payrollHandler.ResumeDraft)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", payrollHandler.Get)
				r.Put("/", payrollHandler.UpdateDraft)
				r.Put("/status", payrollHandler.UpdateStatus)
				r.Delete("/", payrollHandler.Delete)
			})
		})

		r.Route("/salary-lists", func(r chi.Router) {
			r.Post("/", salaryListHandler.Create)
			r.Get("/{id}", salaryListHandler.Get)
			r.Get("/{id}/view", salaryListHandler.View)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"Route not found"}}`))
	})

	return r
}
