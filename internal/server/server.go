package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hireline/internal/engine"
	"hireline/internal/repo"
	sdk "hireline/sdk/go"
)

const requestIDHeader = sdk.RequestIDHeader

// Config for the sandbox HTTP handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	// JWTSecret turns on bearer authentication and signs download links.
	JWTSecret string
	Logger    *slog.Logger
	// Registry receives the sandbox metrics; nil uses a private registry.
	Registry *prometheus.Registry
}

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type envelopeOutput struct {
	Body envelope
}

func ok(data any) *envelopeOutput {
	return &envelopeOutput{Body: envelope{Success: true, Data: data}}
}

// apiError renders as {"success":false,"error":"..."}.
type apiError struct {
	status  int
	Success bool   `json:"success"`
	Message string `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Message }

func newAPIError(status int, message string) huma.StatusError {
	return &apiError{status: status, Message: message}
}

type handlers struct {
	engine   engine.Engine
	logger   *slog.Logger
	basePath string
	signer   linkSigner
}

// New returns the sandbox HTTP handler.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := newHTTPMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, joinMessages(msg, errs))
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		return newAPIError(status, joinMessages(msg, errs))
	}

	secret := cfg.JWTSecret
	signingKey := secret
	if signingKey == "" {
		signingKey = uuid.NewString()
	}
	h := handlers{
		engine:   cfg.Engine,
		logger:   logger,
		basePath: basePath,
		signer:   linkSigner{key: []byte(signingKey), ttl: signedURLTTL, now: cfg.Engine.Now},
	}

	router := chi.NewRouter()
	router.Use(observe(metrics, logger))
	router.Use(newAuthMiddleware(basePath, secret))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	hcfg := huma.DefaultConfig("Hireline Sandbox API", "0.1.0")
	hcfg.OpenAPIPath = path.Join(basePath, "openapi")
	hcfg.DocsPath = ""
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	for _, kind := range repo.Kinds {
		switch kind {
		case repo.KindApplications:
			h.registerApplications(group)
		case repo.KindJobs:
			h.registerJobs(group)
		default:
			h.registerCollection(group, kind)
		}
	}
	h.registerUploads(router)

	return router, nil
}

func joinMessages(msg string, errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			parts = append(parts, err.Error())
		}
	}
	if len(parts) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(parts, "; ")
}

func (h handlers) fail(ctx context.Context, err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, err.Error())
	}
	if errors.Is(err, engine.ErrInvalid) {
		return newAPIError(http.StatusBadRequest, strings.TrimPrefix(err.Error(), engine.ErrInvalid.Error()+": "))
	}
	h.logger.ErrorContext(ctx, "request failed", slog.Any("error", err))
	return newAPIError(http.StatusInternalServerError, "internal error")
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*envelopeOutput, error) {
		return ok(map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}), nil
	})
}
