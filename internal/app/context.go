package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"hireline/internal/config"
	"hireline/internal/session"
	sdk "hireline/sdk/go"
)

// Overrides are per-invocation values that win over the config file.
type Overrides struct {
	BaseURL string
	Token   string
	Actor   string
}

// ResolveClientAndSession builds the API client from cfg and returns a context
// carrying the acting user. The actor comes from the override, then the
// bearer token's claims, then actor.default, then the SDK's own default.
func ResolveClientAndSession(ctx context.Context, cfg *config.Config, o Overrides, logger *slog.Logger) (*sdk.Client, context.Context, error) {
	if cfg == nil {
		return nil, ctx, errors.New("config not loaded")
	}
	baseURL := firstNonEmpty(o.BaseURL, cfg.API.BaseURL)
	token := firstNonEmpty(o.Token, cfg.API.Token)

	c := sdk.New(baseURL)
	c.BearerToken = token
	c.Timeout = cfg.API.Timeout
	if def := strings.TrimSpace(cfg.Actor.Default); def != "" {
		c.DefaultActor = def
	}
	if logger != nil {
		c.Logger = logger
	}

	if actor := strings.TrimSpace(o.Actor); actor != "" {
		return c, sdk.WithActor(ctx, actor), nil
	}
	if token == "" {
		return c, ctx, nil
	}
	s, err := session.Parse(token, cfg.Session.Secret)
	if err != nil {
		if cfg.Session.Secret != "" {
			return nil, ctx, fmt.Errorf("session: %w", err)
		}
		// opaque token: no actor to read
		return c, ctx, nil
	}
	return c, s.Context(ctx), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
