package api

import (
	"context"
	"net/http"
	"net/url"
)

// requestURLKey is the context key for the absolute request URL.
const requestURLKey ctxKey = "request_url"

// withRequestURL records the absolute URL of the request so list handlers can
// link to neighbouring pages.
func withRequestURL(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := *r.URL
		u.Host = r.Host
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			u.Scheme = proto
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestURLKey, &u)))
	})
}

// requestURL returns a copy of the absolute request URL, or nil outside a request.
func requestURL(ctx context.Context) *url.URL {
	u, ok := ctx.Value(requestURLKey).(*url.URL)
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}
