// Package handler assembles the HTTP surface: middleware and routes.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/auth"
	"github.com/unclebandit/voicecampaign-backend/internal/controller"
)

// Controllers groups everything the router dispatches to.
type Controllers struct {
	Campaigns   *controller.CampaignController
	CallHistory *controller.CallHistoryController
	Auth        *controller.AuthController
	Reporting   *controller.ReportingController
	Harness     *controller.HarnessController
}

func NewRouter(c Controllers, issuer *auth.Issuer, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}` + "\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(issuer))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", c.Auth.Login)
			r.Post("/register", c.Auth.Register)
			r.With(RequireUser).Get("/me", c.Auth.Me)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", c.Campaigns.ListCampaigns)
			r.Post("/", c.Campaigns.CreateCampaign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", c.Campaigns.GetCampaign)
				r.Patch("/", c.Campaigns.UpdateCampaign)
				r.Delete("/", c.Campaigns.DeleteCampaign)
				r.Post("/toggle", c.Campaigns.ToggleCampaign)
				r.Post("/duplicate", c.Campaigns.DuplicateCampaign)
				r.Post("/preview", c.Campaigns.PersonalizedPreview)
				r.Get("/stats", c.Campaigns.GetCampaignStats)
				if c.Harness != nil {
					r.Get("/test-call", c.Harness.TestCall)
				}
			})
		})

		r.Route("/call-history", func(r chi.Router) {
			r.Get("/", c.CallHistory.ListCallHistory)
			r.Post("/", c.CallHistory.CreateCallHistory)
			r.Get("/campaign/{id}", c.CallHistory.ListByCampaign)
			r.Get("/{id}", c.CallHistory.GetCallHistory)
			r.Patch("/{id}/status", c.CallHistory.UpdateStatus)
		})

		r.Get("/dashboard", c.Reporting.Dashboard)
		r.Get("/billing", c.Reporting.Billing)
		r.Get("/voices", c.Reporting.Voices)
		r.Get("/audience", c.Reporting.SearchAudience)
	})

	return r
}
