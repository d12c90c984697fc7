package cli

import "net/http"

// serveHTTP is split out from runServe so it is the single call that
// actually blocks on the network; kept separate to mirror the teacher's
// serve/listen split in its own cli package.
func serveHTTP(addr string, handler http.Handler) error {
	return http.ListenAndServe(addr, handler)
}
