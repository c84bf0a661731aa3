package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
)

type Registrar func(r chi.Router, d deps.Deps)

var registry []Registrar

// Register adds a registrar. Called from each route file's init.
func Register(reg Registrar) {
	registry = append(registry, reg)
}

// RegisterAll mounts every registered route. Called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registry {
		reg(r, d)
	}
}
