package middleware

import (
	"net/http"
	"strings"
)

// ExtractBearerToken gets the device credential from the Authorization
// header. It returns the empty string when the header is missing or not in
// Bearer form.
func ExtractBearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "Bearer ") {
		return strings.TrimPrefix(token, "Bearer ")
	}
	return ""
}

// ExtractQueryToken gets the device credential from the connection-handshake
// query string used by the WebSocket endpoints.
func ExtractQueryToken(r *http.Request) string {
	return r.URL.Query().Get("token")
}
