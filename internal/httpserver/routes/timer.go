package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/andy/docket/internal/httpserver/deps"
	"github.com/andy/docket/internal/httpserver/handlers"
)

func init() {
	Register(registerHealthz)
	Register(registerTimer)
}

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

func registerTimer(r chi.Router, d deps.Deps) {
	r.Route("/api/timer", func(r chi.Router) {
		r.Get("/", handlers.GetTimer(d))
		r.Post("/start", handlers.StartTimer(d))
		r.Post("/pause", handlers.PauseTimer(d))
		r.Post("/resume", handlers.ResumeTimer(d))
		r.Post("/stop", handlers.StopTimer(d))
		r.Post("/switch", handlers.SwitchTimer(d))
		r.Post("/submit", handlers.SubmitQuickAction(d))
		r.Post("/cancel", handlers.CancelQuickAction(d))
	})
}
