package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver/handlers"
)

func init() { Register(registerRedirect) }

// Static routes such as /healthz win over the wildcard in chi.
func registerRedirect(r chi.Router, d deps.Deps) {
	r.Get("/{code}", handlers.Redirect(d))
	r.Head("/{code}", handlers.RedirectHead(d))
}
