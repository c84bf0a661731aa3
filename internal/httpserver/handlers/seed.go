package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tinylink/internal/logger"
	"github.com/MrSnakeDoc/tinylink/internal/utils"
)

// SeedReload asks the seed reloader to apply the seed file again.
func SeedReload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.SeedTrigger == nil {
			writeError(w, http.StatusNotFound, "Seeding is disabled")
			return
		}

		ip := utils.ClientIP(r, d.TrustProxy)
		select {
		case d.SeedTrigger <- struct{}{}:
			d.Logger.Info("manual seed reload triggered via endpoint", logger.String("remote_ip", ip))
			writeJSON(w, http.StatusAccepted, messageResponse{Message: "Seed reload triggered"})
		default:
			d.Logger.Warn("seed reload already pending", logger.String("remote_ip", ip))
			writeError(w, http.StatusTooManyRequests, "Seed reload already pending")
		}
	}
}
