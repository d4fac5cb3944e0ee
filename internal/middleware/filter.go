package middleware

import (
	"net/http"
	"strings"
)

// MethodFilter lets allowed methods through and hands everything else to fail
// with an Allow header set.
func MethodFilter(fail http.Handler, allowed ...string) func(http.Handler) http.Handler {
	allow := strings.Join(allowed, `, `)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, method := range allowed {
				if r.Method == method {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set(`Allow`, allow)
			fail.ServeHTTP(w, r)
		})
	}
}
