package preview

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter serves dist. With a hub, HTML responses get the live reload
// client and the SSE endpoints are mounted. A nil metrics handler leaves
// /metrics unmounted.
func NewRouter(dist string, hub *LiveReloadHub, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	files := http.FileServer(http.Dir(dist))
	if hub == nil {
		r.Handle("/*", files)
		return r
	}

	r.Handle(LiveReloadPath, hub)
	r.Get(LiveReloadScriptPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		_, _ = w.Write([]byte(LiveReloadScript))
	})
	r.Handle("/*", injectLiveReload(files))
	return r
}
