package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Upload is a stored file blob.
type Upload struct {
	Key         string
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
	CreatedAt   string
}

// NewUploadKey derives a storage key under prefix, keeping the file extension.
func NewUploadKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + ext
}

func (r Repo) PutUpload(ctx context.Context, u Upload) (Upload, error) {
	if u.Key == "" {
		return Upload{}, errors.New("upload key required")
	}
	u.Size = int64(len(u.Data))
	u.CreatedAt = r.now()
	_, err := r.DB.ExecContext(ctx, `INSERT INTO uploads(key,filename,content_type,size,data,created_at) VALUES (?,?,?,?,?,?)`,
		u.Key, u.Filename, u.ContentType, u.Size, u.Data, u.CreatedAt)
	if err != nil {
		return Upload{}, fmt.Errorf("insert upload: %w", err)
	}
	return u, nil
}

func (r Repo) GetUpload(ctx context.Context, key string) (Upload, error) {
	var u Upload
	err := r.DB.QueryRowContext(ctx, `SELECT key,filename,content_type,size,data,created_at FROM uploads WHERE key=?`, key).
		Scan(&u.Key, &u.Filename, &u.ContentType, &u.Size, &u.Data, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, fmt.Errorf("upload %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Upload{}, err
	}
	return u, nil
}
