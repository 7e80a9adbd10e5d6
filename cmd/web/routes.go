package main

import (
	"net/http"

	"github.com/AdamBeresnev/h2h-playoffs/internal/live"
	"github.com/AdamBeresnev/h2h-playoffs/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func newRouter(playoffs *service.PlayoffService, hub *live.Hub) http.Handler {
	h := &handler{playoffs: playoffs, hub: hub}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Put("/tables", h.setTables)
		r.Post("/performances", h.submitPerformance)

		r.Get("/brackets", h.listBrackets)
		r.Post("/brackets", h.buildBracket)

		r.Route("/brackets/{division}", func(r chi.Router) {
			r.Get("/", h.status)
			r.Delete("/", h.deleteBracket)
			r.Get("/layout", h.layout)
			r.Get("/view", h.view)
			r.Post("/matches/{round}/{match}/resolve", h.resolve)
			r.Post("/matches/{round}/{match}/ruling", h.ruling)
		})
	})

	r.Get("/ws/brackets/{tournamentID}/{division}", h.watch)

	return r
}
