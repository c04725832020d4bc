package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/render"

	"github.com/DanielC11038/TempSlackBot/controller"
)

func getRouter(ctrl controller.C, render *render.Render) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", rootHandler(render))
	r.Get("/help", helpHandler(render))

	r.Group(func(r chi.Router) {
		// Answering is bounded by the model service call, not by us.
		r.Use(middleware.Timeout(3 * time.Minute))
		r.Post("/ask", askHandler(ctrl, render))
	})

	r.Route("/events", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/", listEventsHandler(ctrl, render))

		// Ingestion waits on the index readiness poll, so it gets a
		// timeout past the poll window.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(3 * time.Minute))
			r.Post("/{eventKey}/ingest", ingestHandler(ctrl, render))
		})
	})

	return r
}
