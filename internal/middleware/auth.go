package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mirilee/daybook/internal/auth"
)

// BearerToken extracts the access token from the Authorization header, or
// from the "token" query parameter as a fallback for EventSource clients that
// cannot set headers.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tok
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// RequireAuth validates the request's access token and populates AuthContext.
func RequireAuth(tokens *auth.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := BearerToken(r)
			if tok == "" {
				unauthorized(w, "missing access token")
				return
			}

			claims, err := tokens.Parse(tok)
			if err != nil {
				unauthorized(w, "invalid or expired access token")
				return
			}

			ac := auth.AuthContext{
				UserID: claims.UserID,
				Email:  claims.Subject,
				Name:   claims.Name,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
