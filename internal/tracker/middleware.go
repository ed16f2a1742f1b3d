package tracker

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Middleware records a request pattern for every request carrying a {code}
// route variable. Mounted in front of the high-traffic redirect route.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		if code := mux.Vars(r)["code"]; code != "" {
			t.Observe(code, time.Since(start))
		}
	})
}
