package middleware

import "net/http"

// Vary marks responses as varying on Accept, since the API negotiates
// between JSON and CBOR. Origin is added separately by the CORS handler.
func Vary() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept")
			next.ServeHTTP(w, r)
		})
	}
}
