package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"hireline/internal/session"
)

// Principal is the caller behind a request's bearer token.
type Principal struct {
	Subject string
	Actor   string
	Roles   []string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// actorFromContext returns the authenticated actor, or "" for anonymous calls.
func actorFromContext(ctx context.Context) string {
	if p, ok := principalFromContext(ctx); ok {
		return p.Actor
	}
	return ""
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// newAuthMiddleware enforces bearer tokens under basePath when secret is set.
// Without a secret any token is read unverified so writes can still be
// attributed, and requests without one pass through.
func newAuthMiddleware(basePath, secret string) func(http.Handler) http.Handler {
	open := map[string]bool{
		path.Join(basePath, "health"):                    true,
		path.Join(basePath, "openapi.json"):              true,
		path.Join(basePath, "openapi.yaml"):              true,
		path.Join(basePath, "applications/public-apply"): true,
	}
	filesPrefix := path.Join(basePath, "files") + "/"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !strings.HasPrefix(req.URL.Path, basePath+"/") {
				next.ServeHTTP(w, req)
				return
			}
			public := open[req.URL.Path] || strings.HasPrefix(req.URL.Path, filesPrefix)

			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			if authz == "" {
				if secret != "" && !public {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "authentication required"))
					return
				}
				next.ServeHTTP(w, req)
				return
			}
			token, ok := bearerToken(authz)
			if !ok {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid credentials"))
				return
			}
			s, err := session.Parse(token, secret)
			if err != nil {
				if secret != "" && !public {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid credentials"))
					return
				}
				next.ServeHTTP(w, req)
				return
			}
			ctx := withPrincipal(req.Context(), Principal{Subject: s.Subject, Actor: s.Actor, Roles: s.Roles})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
