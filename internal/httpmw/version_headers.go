package httpmw

import "net/http"

// VersionHeaders adds the running service version to every response so
// callers can correlate behavior changes with deploys.
func VersionHeaders(version string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if version != "" {
				w.Header().Set("X-Service-Version", version)
			}
			next.ServeHTTP(w, r)
		})
	}
}
