// Package greeting serves the greeting as an HTTP Cloud Function, for
// deployments that do not run the full server.
package greeting

import (
	"encoding/json"
	"net/http"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
)

// Message is the greeting text, identical to the server's GET /greeting.
const Message = "Hello World!"

func init() {
	functions.HTTP("Greeting", greetingHandler)
}

// Response is the function's JSON payload.
type Response struct {
	Message string `json:"message"`
}

func greetingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{Message: Message})
}
