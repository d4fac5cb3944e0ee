package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dirindex/internal/control"
)

// Log reads the logger level on GET and changes it on POST with a level form
// value.
func Log(logger control.Logger) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if strings.Contains(r.Header.Get(`Accept`), `application/json`) {
				w.Header().Set(`Content-Type`, `application/json`)
				json.NewEncoder(w).Encode(map[string]string{`level`: logger.Level().String()})
				return
			}
			w.Header().Set(`Content-Type`, `text/plain; charset=utf-8`)
			fmt.Fprintf(w, "%s\r\n", logger.Level())
		case http.MethodPost:
			from := logger.Level()
			if err := logger.SetLevelFromString(r.FormValue(`level`)); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.Audit(`logging.level %s -> %s`, from, logger.Level())
			w.Header().Set(`Content-Type`, `text/plain; charset=utf-8`)
			fmt.Fprintf(w, "%s -> %s\r\n", from, logger.Level())
		default:
			w.Header().Set(`Allow`, `GET, POST`)
			MethodNotAllowed.ServeHTTP(w, r)
		}
	})
}
