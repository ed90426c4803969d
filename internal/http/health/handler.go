package health

import (
	"encoding/json"
	"net/http"

	applog "github.com/janisto/greeting-service/internal/platform/logging"
)

// Response is the payload for the health endpoint.
type Response struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Handler reports liveness together with the running build version.
// It is mounted on the router directly and is not part of the OpenAPI document.
func Handler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Response{Status: "healthy", Version: version}); err != nil {
			applog.LogError(r.Context(), "failed to write health response", err)
		}
	}
}
