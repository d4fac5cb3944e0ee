package middleware

import (
	"bytes"
	"encoding/hex"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"dirindex/internal/control"
)

const dumpLimit = 1024

// Dump writes request headers and the first bytes of the body to the logger
// while it runs at trace level. The body is handed on intact.
func Dump(label string, logger control.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger.Level() > control.LogLevelTrace {
				next.ServeHTTP(w, r)
				return
			}
			sig := '.'
			if r.TLS != nil {
				sig = '^'
			}
			reqID := middleware.GetReqID(r.Context())

			keys := make([]string, 0, len(r.Header))
			for k := range r.Header {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Trace(`%-5s %c %s === %s %s`, label, sig, reqID, r.Method, r.RequestURI)
			for _, key := range keys {
				vals := r.Header[key]
				if len(vals) == 1 {
					logger.Trace(`%-5s %c %s >>> %-20s %s`, label, sig, reqID, key, vals[0])
				} else {
					logger.Trace(`%-5s %c %s >>> %-20s %+v`, label, sig, reqID, key, vals)
				}
			}
			if r.Body != nil && r.Body != http.NoBody {
				body, err := io.ReadAll(io.LimitReader(r.Body, dumpLimit))
				if err != nil {
					logger.Error(`%-5s %c %s %s`, label, sig, reqID, err)
				} else if len(body) > 0 {
					logger.Trace(`%-5s %c %s === body %d`, label, sig, reqID, len(body))
					for _, s := range strings.Split(hex.Dump(body), "\n") {
						if len(s) > 0 {
							logger.Trace(`%-5s %c %s >>> %s`, label, sig, reqID, s)
						}
					}
				}
				r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(body), r.Body), Closer: r.Body}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}
