package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Route paths of the sync API.
const (
	pathHealth  = "/api/health"
	pathVersion = "/api/version"
	pathPush    = "/api/sync/push"
	pathPull    = "/api/sync/pull"
	pathEvents  = "/api/sync/events"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get(pathHealth, h.health)
		r.Get(pathVersion, h.getServerVersion)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Group(func(r chi.Router) {
			r.Use(withGZip)
			r.Post(pathPush, h.push)
			r.Get(pathPull, h.pull)
		})

		// the change feed hijacks the connection, so it is never compressed
		r.Get(pathEvents, h.events)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
