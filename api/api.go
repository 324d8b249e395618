package api

import (
	"net/http"

	"github.com/zdunecki/graphfleet/pkg/util"
)

// MiddleWare wraps a route handler. The first middleware passed to a route runs outermost.
type MiddleWare func(next http.HandlerFunc) http.HandlerFunc

// WithMaxBytes caps the request body, reads past n fail with *http.MaxBytesError.
func WithMaxBytes(n util.Byte) MiddleWare {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, int64(n))
			next(w, r)
		}
	}
}

type RouteMethods interface {
	Get(string, http.HandlerFunc)
	Put(string, http.HandlerFunc)
	Post(string, http.HandlerFunc)
	Patch(string, http.HandlerFunc)
	Delete(string, http.HandlerFunc)

	Handle(string, http.Handler)
}

type Router interface {
	ServeHTTP(http.ResponseWriter, *http.Request)

	RouteMethods
}

type API interface {
	Handler() http.Handler

	Get(string, ContextFn, ...MiddleWare)
	Put(string, ContextFn, ...MiddleWare)
	Post(string, ContextFn, ...MiddleWare)
	Patch(string, ContextFn, ...MiddleWare)
	Delete(string, ContextFn, ...MiddleWare)

	// Raw mounts a plain http.Handler, e.g. the prometheus exposition endpoint.
	Raw(string, http.Handler)
}

type api struct {
	router Router
}

func New(router Router) API {
	return &api{
		router: router,
	}
}

func (a *api) Get(s string, context ContextFn, middlewares ...MiddleWare) {
	a.router.Get(s, handle(context, middlewares))
}

func (a *api) Post(s string, context ContextFn, middlewares ...MiddleWare) {
	a.router.Post(s, handle(context, middlewares))
}

func (a *api) Put(s string, context ContextFn, middlewares ...MiddleWare) {
	a.router.Put(s, handle(context, middlewares))
}

func (a *api) Patch(s string, context ContextFn, middlewares ...MiddleWare) {
	a.router.Patch(s, handle(context, middlewares))
}

func (a *api) Delete(s string, context ContextFn, middlewares ...MiddleWare) {
	a.router.Delete(s, handle(context, middlewares))
}

func (a *api) Raw(s string, h http.Handler) {
	a.router.Handle(s, h)
}

func (a *api) Handler() http.Handler {
	return a.router
}

func handle(context ContextFn, middlewares []MiddleWare) http.HandlerFunc {
	h := func(writer http.ResponseWriter, request *http.Request) {
		context(ctx{
			writer:  writer,
			request: request,
		})
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}
