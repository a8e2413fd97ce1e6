package cover

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Uploader stores an encoded image and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, data []byte, fileName string, folder string) (string, error)
}

// LocalUploader writes covers below Dir and serves them under PublicBaseURL.
type LocalUploader struct {
	dir           string
	publicBaseURL string
}

func NewLocalUploader(dir string, publicBaseURL string) (*LocalUploader, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("public base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse public base URL: %w", err)
	}
	return &LocalUploader{dir: dir, publicBaseURL: base}, nil
}

func (u *LocalUploader) Dir() string {
	if u == nil {
		return ""
	}
	return u.dir
}

func (u *LocalUploader) Upload(ctx context.Context, data []byte, fileName string, folder string) (string, error) {
	if u == nil {
		return "", fmt.Errorf("uploader is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to upload empty file")
	}

	name, err := safePathSegment(fileName)
	if err != nil {
		return "", fmt.Errorf("file name: %w", err)
	}
	folderName, err := safePathSegment(folder)
	if err != nil {
		return "", fmt.Errorf("folder: %w", err)
	}

	targetDir := filepath.Join(u.dir, folderName)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload folder: %w", err)
	}

	tmp, err := os.CreateTemp(targetDir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(targetDir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("move upload into place: %w", err)
	}

	return u.publicBaseURL + "/" + url.PathEscape(folderName) + "/" + url.PathEscape(name), nil
}

func safePathSegment(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("must not be empty")
	}
	if trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
		return "", fmt.Errorf("invalid path segment %q", raw)
	}
	return trimmed, nil
}
