package handler

import (
	"net/http"
	"strconv"
)

var errorPages = map[int]bool{
	http.StatusBadRequest:          true,
	http.StatusUnauthorized:        true,
	http.StatusForbidden:           true,
	http.StatusNotFound:            true,
	http.StatusInternalServerError: true,
	http.StatusServiceUnavailable:  true,
}

// Status answers with code. With a redirect base the client is sent to
// <redirect>/<code> instead, where codes without a page of their own use 500.
func Status(code int, redirect string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if redirect != `` {
			page := code
			if !errorPages[page] {
				page = http.StatusInternalServerError
			}
			http.Redirect(w, r, redirect+`/`+strconv.Itoa(page), http.StatusFound)
			return
		}
		http.Error(w, http.StatusText(code), code)
	})
}

var (
	NotFound         = Status(http.StatusNotFound, ``)
	MethodNotAllowed = Status(http.StatusMethodNotAllowed, ``)
)
