package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tinylink/internal/logger"
)

type createLinkRequest struct {
	TargetURL string `json:"target_url"`
	Code      string `json:"code,omitempty"`
}

func CreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		link, err := d.Allocator.Allocate(r.Context(), req.TargetURL, req.Code)
		switch {
		case err == nil:
			d.Logger.Info("link created",
				logger.String("code", link.Code),
				logger.Bool("custom", req.Code != ""))
			writeJSON(w, http.StatusCreated, link)
		case errors.Is(err, domain.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, "Invalid URL provided")
		case errors.Is(err, domain.ErrInvalidCodeFormat):
			writeError(w, http.StatusBadRequest, "Code must be 6-8 alphanumeric characters")
		case errors.Is(err, domain.ErrCodeConflict):
			writeError(w, http.StatusConflict, "Code already exists")
		case errors.Is(err, domain.ErrAllocationExhausted):
			fail(d, w, r, http.StatusServiceUnavailable, "Could not allocate a unique code, try again", err)
		default:
			fail(d, w, r, http.StatusInternalServerError, "Failed to create link", err)
		}
	}
}

func GetLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := d.Links.FindByCode(r.Context(), chi.URLParam(r, "code"))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, link)
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Link not found")
		default:
			fail(d, w, r, http.StatusInternalServerError, "Failed to fetch link", err)
		}
	}
}

func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := d.Links.ListAll(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			fail(d, w, r, http.StatusInternalServerError, "Failed to fetch links", err)
			return
		}
		if links == nil {
			links = []domain.Link{}
		}
		writeJSON(w, http.StatusOK, links)
	}
}

func DeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		deleted, err := d.Links.DeleteByCode(r.Context(), code)
		if err != nil {
			fail(d, w, r, http.StatusInternalServerError, "Failed to delete link", err)
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "Link not found")
			return
		}
		d.Logger.Info("link deleted", logger.String("code", code))
		writeJSON(w, http.StatusOK, messageResponse{Message: "Link deleted successfully"})
	}
}
