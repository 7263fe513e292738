package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"hireline/internal/repo"
	sdk "hireline/sdk/go"
)

const (
	signedURLTTL   = 15 * time.Minute
	maxUploadBytes = 10 << 20
)

// Accepted resume types by extension.
var resumeTypes = map[string]bool{".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".rtf": true}

// linkSigner mints short-lived download tokens bound to one storage key.
type linkSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func (s linkSigner) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s linkSigner) sign(objectKey string) (string, time.Time, error) {
	exp := s.clock().Add(s.ttl)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   objectKey,
		Audience:  jwt.ClaimStrings{"download"},
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString(s.key)
	return tok, exp, err
}

func (s linkSigner) verify(objectKey, token string) error {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience("download"),
		jwt.WithTimeFunc(s.clock),
	)
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return s.key, nil }); err != nil {
		return err
	}
	if claims.Subject != objectKey {
		return errors.New("link does not match object")
	}
	return nil
}

func (h handlers) registerUploads(r chi.Router) {
	r.Post(path.Join(h.basePath, "upload/resume"), h.handleUpload("resumes", "Failed to upload resume", resumeTypes))
	r.Post(path.Join(h.basePath, "upload/file"), h.handleUpload("files", "Failed to upload file", nil))
	r.Get(path.Join(h.basePath, "upload/signed-url")+"/*", h.handleSignedURL)
	r.Get(path.Join(h.basePath, "files")+"/*", h.handleDownload)
}

func (h handlers) handleUpload(prefix, fallback string, allowed map[string]bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				respondStatusError(w, newAPIError(http.StatusRequestEntityTooLarge, fallback))
				return
			}
			respondStatusError(w, newAPIError(http.StatusBadRequest, fallback+": multipart field \"file\" is required"))
			return
		}
		defer file.Close()
		ext := strings.ToLower(path.Ext(header.Filename))
		if allowed != nil && !allowed[ext] {
			respondStatusError(w, newAPIError(http.StatusBadRequest, fmt.Sprintf("%s: unsupported file type %q", fallback, ext)))
			return
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, file); err != nil {
			respondStatusError(w, newAPIError(http.StatusBadRequest, fallback+": "+err.Error()))
			return
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(buf.Bytes())
		}
		u, err := h.engine.Store().PutUpload(r.Context(), repo.Upload{
			Key:         repo.NewUploadKey(prefix, header.Filename),
			Filename:    header.Filename,
			ContentType: contentType,
			Data:        buf.Bytes(),
		})
		if err != nil {
			respondStatusError(w, h.fail(r.Context(), err))
			return
		}
		link, _, err := h.link(r, u.Key)
		if err != nil {
			respondStatusError(w, h.fail(r.Context(), err))
			return
		}
		writeEnvelope(w, http.StatusCreated, sdk.UploadResult{
			Key:         u.Key,
			URL:         link,
			Filename:    u.Filename,
			Size:        u.Size,
			ContentType: u.ContentType,
		})
	}
}

func (h handlers) handleSignedURL(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		respondStatusError(w, newAPIError(http.StatusBadRequest, "key is required"))
		return
	}
	if _, err := h.engine.Store().GetUpload(r.Context(), key); err != nil {
		respondStatusError(w, h.fail(r.Context(), err))
		return
	}
	link, exp, err := h.link(r, key)
	if err != nil {
		respondStatusError(w, h.fail(r.Context(), err))
		return
	}
	writeEnvelope(w, http.StatusOK, sdk.SignedURL{URL: link, ExpiresAt: exp.UTC().Format(time.RFC3339)})
}

func (h handlers) handleDownload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if err := h.signer.verify(key, r.URL.Query().Get("token")); err != nil {
		respondStatusError(w, newAPIError(http.StatusForbidden, "invalid or expired link"))
		return
	}
	u, err := h.engine.Store().GetUpload(r.Context(), key)
	if err != nil {
		respondStatusError(w, h.fail(r.Context(), err))
		return
	}
	w.Header().Set("Content-Type", u.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(u.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", u.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(u.Data)
}

// link builds an absolute download URL for key on the host that was asked.
func (h handlers) link(r *http.Request, key string) (string, time.Time, error) {
	tok, exp, err := h.signer.sign(key)
	if err != nil {
		return "", time.Time{}, err
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     path.Join(h.basePath, "files", key),
		RawQuery: url.Values{"token": {tok}}.Encode(),
	}
	return u.String(), exp, nil
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}
