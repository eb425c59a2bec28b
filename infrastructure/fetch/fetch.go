// Package fetch builds HTTP transports out of small composable middlewares.
package fetch

import "net/http"

// FetchFunc performs one HTTP exchange. It satisfies http.RoundTripper so a
// composed chain can back an *http.Client.
type FetchFunc func(req *http.Request) (*http.Response, error)

func (f FetchFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps next with additional behaviour.
type Middleware func(next FetchFunc) FetchFunc

// Compose wraps base with middlewares. The first middleware listed is the outermost.
func Compose(base FetchFunc, middlewares ...Middleware) FetchFunc {
	fn := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		fn = middlewares[i](fn)
	}
	return fn
}

// FromTransport adapts a RoundTripper. A nil transport means http.DefaultTransport.
func FromTransport(rt http.RoundTripper) FetchFunc {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return rt.RoundTrip
}

// NewClient returns an *http.Client whose transport is fn.
func NewClient(fn FetchFunc) *http.Client {
	return &http.Client{Transport: fn}
}
