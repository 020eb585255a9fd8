package fsx

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
)

// FileInfo describes a stored object.
type FileInfo struct {
	Path        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// FileReader provides read-only operations
type FileReader interface {
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter provides write operations
type FileWriter interface {
	WriteFileStream(ctx context.Context, path string, r io.Reader, contentType string) error
}

// FileDeleter provides deletion operations
type FileDeleter interface {
	DeleteFile(ctx context.Context, path string) error
	// DeletePrefix removes every object under prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// FileSystem is the storage used for request images.
type FileSystem interface {
	FileReader
	FileWriter
	FileDeleter
}

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound     = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "File not found")
	ErrInvalidPath  = fsxErrors.Register("INVALID_PATH", errx.TypeValidation, 400, "Invalid file path")
	ErrWriteFailed  = fsxErrors.Register("WRITE_FAILED", errx.TypeExternal, 500, "Failed to store file")
	ErrReadFailed   = fsxErrors.Register("READ_FAILED", errx.TypeExternal, 500, "Failed to read file")
	ErrDeleteFailed = fsxErrors.Register("DELETE_FAILED", errx.TypeExternal, 500, "Failed to delete file")
)

func NotFound(p string) *errx.Error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", p)
}

func Failure(code *errx.ErrorCode, p string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(code, cause).WithDetail("path", p)
}

// CleanPath normalizes a slash separated object path and rejects paths that
// are empty, absolute, or escape the root.
func CleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fsxErrors.New(ErrInvalidPath).WithDetail("path", p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fsxErrors.New(ErrInvalidPath).WithDetail("path", p)
	}
	return cleaned, nil
}

// ContentTypeFor maps a file extension to a MIME type.
func ContentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
