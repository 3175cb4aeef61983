package middleware

import (
	"context"
	"net/http"
)

type queryTokenKey struct{}

// StripQueryToken removes the token query parameter from the request before
// later middleware (the request logger in particular) sees the URL. The
// value stays available to handlers through QueryToken.
func StripQueryToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !query.Has("token") {
			next.ServeHTTP(w, r)
			return
		}

		token := query.Get("token")
		query.Del("token")

		r = r.Clone(context.WithValue(r.Context(), queryTokenKey{}, token))
		r.URL.RawQuery = query.Encode()
		r.RequestURI = r.URL.RequestURI()
		next.ServeHTTP(w, r)
	})
}

// QueryToken returns the token StripQueryToken took off the URL.
func QueryToken(ctx context.Context) string {
	token, _ := ctx.Value(queryTokenKey{}).(string)
	return token
}
