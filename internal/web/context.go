package web

import (
	"net/http"

	"github.com/JonMunkholm/roster/internal/core"
)

// viewerRole puts the ?view= role on the request context. Unknown views get
// guest visibility; a missing view keeps the admin default.
func viewerRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := r.URL.Query().Get("view")
		if view == "" {
			next.ServeHTTP(w, r)
			return
		}

		role, ok := core.ParseRole(view)
		if !ok {
			role = core.RoleGuest
		}
		next.ServeHTTP(w, r.WithContext(core.ContextWithRole(r.Context(), role)))
	})
}
