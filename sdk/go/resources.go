package hirelinesdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Collection binds the uniform CRUD endpoints of one entity.
type Collection[T any] struct {
	c    *Client
	path string
	noun string
}

func newCollection[T any](c *Client, path, noun string) *Collection[T] {
	return &Collection[T]{c: c, path: path, noun: noun}
}

// List returns all records, optionally filtered by query.
func (r *Collection[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	endpoint := r.path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var items []T
	if err := r.exec(ctx, "list", http.MethodGet, endpoint, nil, fmt.Sprintf("Failed to fetch %ss", r.noun), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get fetches one record by id.
func (r *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.exec(ctx, "get", http.MethodGet, r.item(id), nil, fmt.Sprintf("Failed to fetch %s", r.noun), &out)
	return out, err
}

// Create posts a new record and returns the stored version.
func (r *Collection[T]) Create(ctx context.Context, in T) (T, error) {
	var out T
	err := r.exec(ctx, "create", http.MethodPost, r.path, in, fmt.Sprintf("Failed to create %s", r.noun), &out)
	return out, err
}

// Update replaces the record with id.
func (r *Collection[T]) Update(ctx context.Context, id string, in T) (T, error) {
	var out T
	err := r.exec(ctx, "update", http.MethodPut, r.item(id), in, fmt.Sprintf("Failed to update %s", r.noun), &out)
	return out, err
}

// Delete removes the record with id.
func (r *Collection[T]) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete", http.MethodDelete, r.item(id), nil, fmt.Sprintf("Failed to delete %s", r.noun), nil)
}

func (r *Collection[T]) exec(ctx context.Context, verb, method, endpoint string, body any, fallback string, out any) error {
	_, err := r.c.fetch(ctx, call{
		Op:       r.path + "." + verb,
		Method:   method,
		Endpoint: endpoint,
		Body:     body,
		Fallback: fallback,
	}, out)
	return err
}

func (r *Collection[T]) item(id string, sub ...string) string {
	p := r.path + "/" + url.PathEscape(id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}
