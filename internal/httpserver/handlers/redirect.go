package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
)

// Redirect resolves a short code, counts the click and sends a 302.
func Redirect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Resolver.Resolve(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			fail(d, w, r, http.StatusInternalServerError, "Failed to resolve link", err)
			return
		}
		if !res.Found {
			writeError(w, http.StatusNotFound, "Link not found")
			return
		}
		// Every visit must reach us to be counted.
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, res.TargetURL, http.StatusFound)
	}
}

// RedirectHead answers HEAD without counting a click.
func RedirectHead(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if !domain.ValidCode(code) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		link, err := d.Links.FindByCode(r.Context(), code)
		switch {
		case err == nil:
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Location", link.TargetURL)
			w.WriteHeader(http.StatusFound)
		case errors.Is(err, domain.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
		default:
			fail(d, w, r, http.StatusInternalServerError, "Failed to resolve link", err)
		}
	}
}
