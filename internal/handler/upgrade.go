package handler

import (
	"net"
	"net/http"
)

// Upgrade redirects every request to the same location on the https listener
// bound to httpsAddr.
func Upgrade(httpsAddr string) http.Handler {
	_, port, _ := net.SplitHostPort(httpsAddr)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if port != `` && port != `443` {
			host = net.JoinHostPort(host, port)
		}
		w.Header().Set(`Connection`, `close`)
		http.Redirect(w, r, `https://`+host+r.URL.RequestURI(), http.StatusMovedPermanently)
	})
}
