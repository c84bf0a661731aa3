package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
)

type healthzResponse struct {
	OK        bool   `json:"ok"`
	Version   string `json:"version,omitempty"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.Now()
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthzResponse{
			OK:        true,
			Version:   d.Version,
			Uptime:    fmt.Sprintf("%ds", int64(now.Sub(start).Seconds())),
			Timestamp: now.UTC().Format(time.RFC3339),
			Commit:    d.Commit,
			BuildDate: d.BuildDate,
			GoVersion: d.GoVersion,
		})
	}
}
