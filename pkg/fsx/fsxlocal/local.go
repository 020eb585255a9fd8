package fsxlocal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Abraxas-365/contractorconnect/pkg/fsx"
)

// LocalFileSystem implements fsx.FileSystem using local disk
type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem creates the root directory (e.g. "./uploads") when missing.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fsx.Failure(fsx.ErrWriteFailed, basePath, err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fsx.Failure(fsx.ErrInvalidPath, basePath, err)
	}

	return &LocalFileSystem{basePath: absPath}, nil
}

func (l *LocalFileSystem) BasePath() string {
	return l.basePath
}

// fullPath resolves a cleaned object path below the base directory.
func (l *LocalFileSystem) fullPath(p string) (string, error) {
	cleaned, err := fsx.CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.basePath, filepath.FromSlash(cleaned)), nil
}

// ============================================================================
// FileReader Implementation
// ============================================================================

func (l *LocalFileSystem) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, fsx.FileInfo, error) {
	full, err := l.fullPath(p)
	if err != nil {
		return nil, fsx.FileInfo{}, err
	}
	file, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fsx.FileInfo{}, fsx.NotFound(p)
		}
		return nil, fsx.FileInfo{}, fsx.Failure(fsx.ErrReadFailed, p, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fsx.FileInfo{}, fsx.Failure(fsx.ErrReadFailed, p, err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, fsx.FileInfo{}, fsx.NotFound(p)
	}
	return file, fsx.FileInfo{
		Path:        p,
		Size:        stat.Size(),
		ModTime:     stat.ModTime(),
		ContentType: fsx.ContentTypeFor(p),
	}, nil
}

func (l *LocalFileSystem) Exists(ctx context.Context, p string) (bool, error) {
	full, err := l.fullPath(p)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fsx.Failure(fsx.ErrReadFailed, p, err)
	}
	return true, nil
}

// ============================================================================
// FileWriter Implementation
// ============================================================================

// WriteFileStream writes to a temp file and renames it into place so readers
// never observe a partial image.
func (l *LocalFileSystem) WriteFileStream(ctx context.Context, p string, r io.Reader, contentType string) error {
	full, err := l.fullPath(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fsx.Failure(fsx.ErrWriteFailed, p, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fsx.Failure(fsx.ErrWriteFailed, p, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fsx.Failure(fsx.ErrWriteFailed, p, err)
	}
	if err := tmp.Close(); err != nil {
		return fsx.Failure(fsx.ErrWriteFailed, p, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fsx.Failure(fsx.ErrWriteFailed, p, err)
	}
	return nil
}

// ============================================================================
// FileDeleter Implementation
// ============================================================================

func (l *LocalFileSystem) DeleteFile(ctx context.Context, p string) error {
	full, err := l.fullPath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fsx.Failure(fsx.ErrDeleteFailed, p, err)
	}
	return nil
}

func (l *LocalFileSystem) DeletePrefix(ctx context.Context, prefix string) error {
	full, err := l.fullPath(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fsx.Failure(fsx.ErrDeleteFailed, prefix, err)
	}
	return nil
}
