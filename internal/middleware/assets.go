package middleware

import (
	"net/http"

	"dirindex/internal/control"
	"dirindex/internal/volatile"
)

// Assets answers GET and HEAD requests for paths held in vfs and passes
// everything else on.
func Assets(vfs volatile.Fs, logger control.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if vfs.Len() == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			entry, err := vfs.At(r.URL.Path)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			logger.Trace(`assets.serve path=%s mime=%s size=%d`, r.URL.Path, entry.Mime, len(entry.Data))
			w.Header().Set(`Content-Type`, entry.Mime)
			w.Header().Set(`Cache-Control`, `public, max-age=86400`)
			http.ServeContent(w, r, entry.Name, entry.When, entry.ReadSeeker())
		})
	}
}
