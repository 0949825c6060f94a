package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/aussiebroadwan/gatehouse/internal/idp/store"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// ReadyzHandler reports whether the client can do useful work: the
// nonce store must answer and the provider must serve this client's own
// API key. The key lookup rides the resource cache when one is wired,
// so repeated probes stay cheap.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	gw gateway.Resources,
	ownKeyID string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Store:   "ok",
			Gateway: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if _, err := gw.GetAPIKey(r.Context(), ownKeyID); err != nil {
			checks.Gateway = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
