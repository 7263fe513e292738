package hirelinesdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// UploadResult is returned by the upload endpoints.
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// SignedURL is a time-limited download link for an uploaded object.
type SignedURL struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// UploadResume submits a resume file as multipart form field "file".
func (c *Client) UploadResume(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	return c.upload(ctx, "upload.resume", "upload/resume", filename, r, "Failed to upload resume")
}

// UploadFile submits an arbitrary attachment as multipart form field "file".
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	return c.upload(ctx, "upload.file", "upload/file", filename, r, "Failed to upload file")
}

// SignedURL asks the backend for a download link. The key is appended as-is:
// the backend matches it as a full path, slashes included.
func (c *Client) SignedURL(ctx context.Context, key string) (SignedURL, error) {
	var out SignedURL
	_, err := c.fetch(ctx, call{
		Op:       "upload.signed_url",
		Method:   http.MethodGet,
		Endpoint: "upload/signed-url/" + strings.TrimLeft(key, "/"),
		Fallback: "Failed to get signed URL",
	}, &out)
	return out, err
}

func (c *Client) upload(ctx context.Context, op, endpoint, filename string, r io.Reader, fallback string) (UploadResult, error) {
	var out UploadResult
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return out, fmt.Errorf("%s: read file: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.fetch(ctx, call{
		Op:          op,
		Method:      http.MethodPost,
		Endpoint:    endpoint,
		Fallback:    fallback,
		Raw:         &buf,
		ContentType: w.FormDataContentType(),
	}, &out)
	return out, err
}
