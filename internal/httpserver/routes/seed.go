package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver/mw"
)

func init() { Register(registerSeed) }

func registerSeed(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Post("/api/seed/reload", handlers.SeedReload(d))
}
