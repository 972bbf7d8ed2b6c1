package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods  = "GET, POST, PATCH, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Authorization, Content-Type, Accept, X-Request-Id"
	corsExposeHeaders = "X-Request-Id"
	corsMaxAge        = "86400"
)

// CORS adds CORS headers for allowed origins and answers preflight requests with 204.
// An entry of "*" allows any origin; credentials are then not advertised.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			allowed[o] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, listed := allowed[origin]
			ok := origin != "" && (listed || wildcard)

			if ok {
				hdr := w.Header()
				hdr.Add("Vary", "Origin")
				hdr.Set("Access-Control-Allow-Origin", origin)
				hdr.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				if listed {
					hdr.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if ok {
					hdr := w.Header()
					hdr.Set("Access-Control-Allow-Methods", corsAllowMethods)
					hdr.Set("Access-Control-Allow-Headers", corsAllowHeaders)
					hdr.Set("Access-Control-Max-Age", corsMaxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
