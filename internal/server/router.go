package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures [NewRouter].
type RouterOptions struct {
	Prefix      string
	CORSOrigins []string
	Logger      *log.Logger
	Handlers    []Handler
	// Middleware is appended after the built-in stack.
	Middleware []Middleware
}

// NewRouter builds the API router. Handlers are mounted under opts.Prefix; /metrics is not.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Logger))
	r.Use(Metrics(DefaultMetricsConfig()))
	r.Use(middleware.Recoverer)
	r.Use(CORS(opts.CORSOrigins))
	for _, m := range opts.Middleware {
		r.Use(m)
	}

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	mount := func(api chi.Router) {
		api.Use(render.SetContentType(render.ContentTypeJSON))
		for _, h := range opts.Handlers {
			h.Routes(api)
		}
	}

	if opts.Prefix == "" || opts.Prefix == "/" {
		r.Group(mount)
	} else {
		r.Route(opts.Prefix, mount)
	}

	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, &errorResponse{HTTPStatusCode: http.StatusNotFound, ErrorText: "route does not exist"})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, &errorResponse{HTTPStatusCode: http.StatusMethodNotAllowed, ErrorText: "method is not valid"})
}
