package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// HealthResponse is the body of the livez/readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks itemises dependency status for the readiness probe.
type HealthChecks struct {
	Store   string `json:"store"`
	Gateway string `json:"gateway"`
}

// LivezHandler always answers 200 while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
