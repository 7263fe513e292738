package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"hireline/internal/engine"
	"hireline/internal/repo"
	sdk "hireline/sdk/go"
)

// decodeApplication reads a loosely typed body so nullable fields such as
// aiScore pass through untouched.
func decodeApplication(body map[string]any) (sdk.Application, error) {
	var app sdk.Application
	if err := repo.Decode(body, &app); err != nil {
		return sdk.Application{}, fmt.Errorf("%w: %v", engine.ErrInvalid, err)
	}
	return app, nil
}

type stageInput struct {
	ID   string `path:"id"`
	Body struct {
		Stage string `json:"stage" minLength:"1"`
	}
}

type statusInput struct {
	ID   string `path:"id"`
	Body struct {
		Status string `json:"status" minLength:"1"`
	}
}

type rejectInput struct {
	ID   string `path:"id"`
	Body struct {
		Reason     string `json:"reason"`
		RejectedBy string `json:"rejectedBy,omitempty"`
	}
}

type moveInput struct {
	ID   string `path:"id"`
	Body struct {
		Stage   string `json:"stage" minLength:"1"`
		MovedBy string `json:"movedBy,omitempty"`
		Notes   string `json:"notes,omitempty"`
		Action  string `json:"action,omitempty"`
	}
}

type commentInput struct {
	ID   string `path:"id"`
	Body sdk.NewComment
}

type hotInput struct {
	ID   string `path:"id"`
	Body struct {
		IsHotApplicant bool `json:"isHotApplicant"`
	}
}

type attentionInput struct {
	ID   string `path:"id"`
	Body struct {
		NeedsAttention bool `json:"needsAttention"`
	}
}

type screeningInput struct {
	ID   string `path:"id"`
	Body sdk.Screening
}

type publicApplyInput struct {
	Body sdk.PublicApplication
}

// orActor prefers the body's actor and falls back to the authenticated one.
func orActor(ctx context.Context, given string) string {
	if given != "" {
		return given
	}
	return actorFromContext(ctx)
}

func (h handlers) registerApplications(api huma.API) {
	e := h.engine
	kind := repo.KindApplications
	tags := []string{kind}

	huma.Register(api, huma.Operation{
		OperationID: "listApplications",
		Method:      http.MethodGet,
		Path:        "/applications",
		Summary:     "List applications",
		Tags:        tags,
	}, func(ctx context.Context, in *struct {
		JobID string `query:"jobId"`
	}) (*envelopeOutput, error) {
		apps, err := e.Store().ListApplications(ctx, in.JobID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(apps), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "getApplications",
		Method:      http.MethodGet,
		Path:        "/applications/{id}",
		Summary:     "Get an application",
		Tags:        tags,
	}, func(ctx context.Context, in *idInput) (*envelopeOutput, error) {
		return h.application(ctx)(e.Store().GetApplication(ctx, in.ID))
	})

	huma.Register(api, huma.Operation{
		OperationID:   "createApplications",
		Method:        http.MethodPost,
		Path:          "/applications",
		Summary:       "Create an application",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, in *documentInput) (*envelopeOutput, error) {
		app, err := decodeApplication(in.Body)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return h.application(ctx)(e.CreateApplication(ctx, app, actorFromContext(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "replaceApplications",
		Method:      http.MethodPut,
		Path:        "/applications/{id}",
		Summary:     "Replace an application",
		Tags:        tags,
	}, func(ctx context.Context, in *documentUpdateInput) (*envelopeOutput, error) {
		app, err := decodeApplication(in.Body)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return h.application(ctx)(e.ReplaceApplication(ctx, in.ID, app))
	})

	h.registerDelete(api, kind)

	huma.Register(api, huma.Operation{
		OperationID: "updateApplicationStage",
		Method:      http.MethodPatch,
		Path:        "/applications/{id}/stage",
		Summary:     "Set the application stage",
		Tags:        tags,
	}, func(ctx context.Context, in *stageInput) (*envelopeOutput, error) {
		return h.application(ctx)(e.UpdateStage(ctx, in.ID, in.Body.Stage, actorFromContext(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "updateApplicationStatus",
		Method:      http.MethodPatch,
		Path:        "/applications/{id}/status",
		Summary:     "Set the application status",
		Tags:        tags,
	}, func(ctx context.Context, in *statusInput) (*envelopeOutput, error) {
		return h.application(ctx)(e.UpdateStatus(ctx, in.ID, in.Body.Status))
	})

	huma.Register(api, huma.Operation{
		OperationID: "rejectApplication",
		Method:      http.MethodPost,
		Path:        "/applications/{id}/reject",
		Summary:     "Reject an application",
		Tags:        tags,
	}, func(ctx context.Context, in *rejectInput) (*envelopeOutput, error) {
		return h.application(ctx)(e.Reject(ctx, in.ID, in.Body.Reason, orActor(ctx, in.Body.RejectedBy)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "moveApplicationToStage",
		Method:      http.MethodPost,
		Path:        "/applications/{id}/move-to-stage",
		Summary:     "Move an application to a stage and record it in the journey",
		Tags:        tags,
	}, func(ctx context.Context, in *moveInput) (*envelopeOutput, error) {
		return h.application(ctx)(e.MoveToStage(ctx, in.ID, engine.MoveOptions{
			Stage:   in.Body.Stage,
			MovedBy: orActor(ctx, in.Body.MovedBy),
			Notes:   in.Body.Notes,
			Action:  in.Body.Action,
		}))
	})

	huma.Register(api, huma.Operation{
		OperationID:   "addApplicationComment",
		Method:        http.MethodPost,
		Path:          "/applications/{id}/comments",
		Summary:       "Add a comment",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, in *commentInput) (*envelopeOutput, error) {
		c := in.Body
		c.Author = orActor(ctx, c.Author)
		comments, err := e.AddComment(ctx, in.ID, c)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(comments), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "setHotApplicant",
		Method:      http.MethodPatch,
		Path:        "/applications/{id}/hot-applicant",
		Summary:     "Flag or unflag a hot applicant",
		Tags:        tags,
	}, func(ctx context.Context, in *hotInput) (*envelopeOutput, error) {
		return h.application(ctx)(e.SetHotApplicant(ctx, in.ID, in.Body.IsHotApplicant))
	})

	huma.Register(api, huma.Operation{
		OperationID: "setNeedsAttention",
		Method:      http.MethodPatch,
		Path:        "/applications/{id}/needs-attention",
		Summary:     "Flag or unflag an application for attention",
		Tags:        tags,
	}, func(ctx context.Context, in *attentionInput) (*envelopeOutput, error) {
		return h.application(ctx)(e.SetNeedsAttention(ctx, in.ID, in.Body.NeedsAttention))
	})

	huma.Register(api, huma.Operation{
		OperationID: "scheduleScreening",
		Method:      http.MethodPost,
		Path:        "/applications/{id}/schedule-screening",
		Summary:     "Schedule a screening call",
		Tags:        tags,
	}, func(ctx context.Context, in *screeningInput) (*envelopeOutput, error) {
		return h.application(ctx)(e.ScheduleScreening(ctx, in.ID, in.Body, actorFromContext(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "applicationJourney",
		Method:      http.MethodGet,
		Path:        "/applications/{id}/journey",
		Summary:     "Application journey, oldest first",
		Tags:        tags,
	}, func(ctx context.Context, in *idInput) (*envelopeOutput, error) {
		journey, err := e.Journey(ctx, in.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(journey), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "publicApply",
		Method:        http.MethodPost,
		Path:          "/applications/public-apply",
		Summary:       "Apply to a job without an account",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, in *publicApplyInput) (*envelopeOutput, error) {
		res, err := e.PublicApply(ctx, in.Body)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		out := ok(res)
		out.Body.Message = "Application submitted"
		return out, nil
	})
}

// application adapts an engine result to a response.
func (h handlers) application(ctx context.Context) func(sdk.Application, error) (*envelopeOutput, error) {
	return func(app sdk.Application, err error) (*envelopeOutput, error) {
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(app), nil
	}
}
