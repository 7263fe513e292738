package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"hireline/internal/repo"
)

type idInput struct {
	ID string `path:"id"`
}

type listInput struct {
	JobID         string `query:"jobId"`
	CandidateID   string `query:"candidateId"`
	ApplicationID string `query:"applicationId"`
}

func (in listInput) filter() map[string]string {
	return map[string]string{
		"jobId":         in.JobID,
		"candidateId":   in.CandidateID,
		"applicationId": in.ApplicationID,
	}
}

type documentInput struct {
	Body map[string]any
}

type documentUpdateInput struct {
	ID   string `path:"id"`
	Body map[string]any
}

// operationName turns "role-types" into "RoleTypes" for operation ids.
func operationName(kind string) string {
	var b strings.Builder
	for _, part := range strings.Split(kind, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

// registerCollection exposes list/get/create/replace/delete for a plain record kind.
func (h handlers) registerCollection(api huma.API, kind string) {
	r := h.engine.Store()
	name := operationName(kind)
	base := "/" + kind

	huma.Register(api, huma.Operation{
		OperationID: "list" + name,
		Method:      http.MethodGet,
		Path:        base,
		Summary:     "List " + kind,
		Tags:        []string{kind},
	}, func(ctx context.Context, in *listInput) (*envelopeOutput, error) {
		docs, err := r.ListDocuments(ctx, kind, in.filter())
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(docs), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get" + name,
		Method:      http.MethodGet,
		Path:        base + "/{id}",
		Summary:     "Get one of " + kind,
		Tags:        []string{kind},
	}, func(ctx context.Context, in *idInput) (*envelopeOutput, error) {
		doc, err := r.GetDocument(ctx, kind, in.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(doc), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create" + name,
		Method:        http.MethodPost,
		Path:          base,
		Summary:       "Create one of " + kind,
		Tags:          []string{kind},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, in *documentInput) (*envelopeOutput, error) {
		doc, err := r.CreateDocument(ctx, kind, in.Body)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(doc), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "replace" + name,
		Method:      http.MethodPut,
		Path:        base + "/{id}",
		Summary:     "Replace one of " + kind,
		Tags:        []string{kind},
	}, func(ctx context.Context, in *documentUpdateInput) (*envelopeOutput, error) {
		doc, err := r.ReplaceDocument(ctx, kind, in.ID, in.Body)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(doc), nil
	})

	h.registerDelete(api, kind)
}

func (h handlers) registerDelete(api huma.API, kind string) {
	huma.Register(api, huma.Operation{
		OperationID: "delete" + operationName(kind),
		Method:      http.MethodDelete,
		Path:        "/" + kind + "/{id}",
		Summary:     "Delete one of " + kind,
		Tags:        []string{kind},
	}, func(ctx context.Context, in *idInput) (*envelopeOutput, error) {
		if err := h.engine.Store().DeleteDocument(ctx, kind, in.ID); err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(map[string]string{"id": in.ID}), nil
	})
}

// registerJobs is the plain collection plus lookup expansion on reads.
func (h handlers) registerJobs(api huma.API) {
	r := h.engine.Store()
	kind := repo.KindJobs

	huma.Register(api, huma.Operation{
		OperationID: "listJobs",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "List jobs",
		Tags:        []string{kind},
	}, func(ctx context.Context, in *struct {
		Active string `query:"isActive"`
	}) (*envelopeOutput, error) {
		tx, err := h.engine.DB.BeginTx(ctx, nil)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		defer tx.Rollback()
		docs, err := r.ListDocumentsTx(ctx, tx, kind, map[string]string{"isActive": in.Active})
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		for i, doc := range docs {
			if docs[i], err = r.ExpandJobTx(ctx, tx, doc); err != nil {
				return nil, h.fail(ctx, err)
			}
		}
		return ok(docs), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "getJobs",
		Method:      http.MethodGet,
		Path:        "/jobs/{id}",
		Summary:     "Get a job",
		Tags:        []string{kind},
	}, func(ctx context.Context, in *idInput) (*envelopeOutput, error) {
		tx, err := h.engine.DB.BeginTx(ctx, nil)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		defer tx.Rollback()
		doc, err := r.GetDocumentTx(ctx, tx, kind, in.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		if doc, err = r.ExpandJobTx(ctx, tx, doc); err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(doc), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "createJobs",
		Method:        http.MethodPost,
		Path:          "/jobs",
		Summary:       "Create a job",
		Tags:          []string{kind},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, in *documentInput) (*envelopeOutput, error) {
		body := in.Body
		if body == nil {
			body = map[string]any{}
		}
		if _, set := body["isActive"]; !set {
			body["isActive"] = true
		}
		doc, err := r.CreateDocument(ctx, kind, body)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(doc), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "replaceJobs",
		Method:      http.MethodPut,
		Path:        "/jobs/{id}",
		Summary:     "Replace a job",
		Tags:        []string{kind},
	}, func(ctx context.Context, in *documentUpdateInput) (*envelopeOutput, error) {
		doc, err := r.ReplaceDocument(ctx, kind, in.ID, in.Body)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return ok(doc), nil
	})

	h.registerDelete(api, kind)
}
