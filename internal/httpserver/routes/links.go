package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver/handlers"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Route("/api/links", func(r chi.Router) {
		r.Get("/", handlers.ListLinks(d))
		r.Post("/", handlers.CreateLink(d))
		r.Get("/{code}", handlers.GetLink(d))
		r.Delete("/{code}", handlers.DeleteLink(d))
	})
}
