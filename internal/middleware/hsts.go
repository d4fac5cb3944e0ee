package middleware

import (
	"fmt"
	"net/http"
	"time"
)

func Hsts(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf(`max-age=%d; includeSubDomains`, int64(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(`Strict-Transport-Security`, value)
			next.ServeHTTP(w, r)
		})
	}
}
