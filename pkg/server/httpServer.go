package server

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
)

// Controller mounts its routes on the shared router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

func NewHTTPServer(
	controllers []Controller,
	middlewares []mux.MiddlewareFunc,
	notFoundHandler, methodNotAllowedHandler http.Handler,
) *HTTPServer {
	return &HTTPServer{
		Controllers:             controllers,
		Middlewares:             middlewares,
		NotFoundHandler:         notFoundHandler,
		MethodNotAllowedHandler: methodNotAllowedHandler,
	}
}

type HTTPServer struct {
	Controllers             []Controller
	Middlewares             []mux.MiddlewareFunc
	NotFoundHandler         http.Handler
	MethodNotAllowedHandler http.Handler
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.Middlewares...)
	for _, controller := range s.Controllers {
		controller.Register(r)
	}

	// mux does not run middlewares for unmatched routes, so wrap these by hand.
	notFoundHandler := s.NotFoundHandler
	notAllowedHandler := s.MethodNotAllowedHandler
	for i := len(s.Middlewares) - 1; i >= 0; i-- {
		if notFoundHandler != nil {
			notFoundHandler = s.Middlewares[i](notFoundHandler)
		}
		if notAllowedHandler != nil {
			notAllowedHandler = s.Middlewares[i](notAllowedHandler)
		}
	}
	r.NotFoundHandler = notFoundHandler
	r.MethodNotAllowedHandler = notAllowedHandler
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

func (s *HTTPServer) Start(socketAddress string) error {
	return http.ListenAndServe(socketAddress, s.Handler())
}
