package fsxlocal_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/fsx"
	"github.com/Abraxas-365/contractorconnect/pkg/fsx/fsxlocal"
)

func newFS(t *testing.T) *fsxlocal.LocalFileSystem {
	t.Helper()
	fs, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileSystem: %v", err)
	}
	return fs
}

// --- write/read tests ---

func TestWriteThenRead(t *testing.T) {
	fs := newFS(t)
	ctx := context.Background()

	if err := fs.WriteFileStream(ctx, "requests/r1/a.png", strings.NewReader("png-bytes"), "image/png"); err != nil {
		t.Fatalf("write: %v", err)
	}

	rc, info, err := fs.ReadFileStream(ctx, "requests/r1/a.png")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
	if info.Size != int64(len("png-bytes")) || info.ContentType != "image/png" {
		t.Fatalf("unexpected info %+v", info)
	}

	ok, err := fs.Exists(ctx, "requests/r1/a.png")
	if err != nil || !ok {
		t.Fatalf("expected file to exist, got %v %v", ok, err)
	}
}

func TestReadMissing(t *testing.T) {
	fs := newFS(t)
	_, _, err := fs.ReadFileStream(context.Background(), "requests/none.png")
	if !errx.IsCode(err, fsx.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRejectsEscapingPaths(t *testing.T) {
	fs := newFS(t)
	for _, p := range []string{"../etc/passwd", "/abs/path", "", "a/../../b"} {
		err := fs.WriteFileStream(context.Background(), p, strings.NewReader("x"), "")
		if !errx.IsCode(err, fsx.ErrInvalidPath) {
			t.Fatalf("%q: expected INVALID_PATH, got %v", p, err)
		}
	}
}

// --- delete tests ---

func TestDeletePrefix(t *testing.T) {
	fs := newFS(t)
	ctx := context.Background()
	_ = fs.WriteFileStream(ctx, "requests/r1/a.png", strings.NewReader("a"), "")
	_ = fs.WriteFileStream(ctx, "requests/r1/b.png", strings.NewReader("b"), "")
	_ = fs.WriteFileStream(ctx, "requests/r2/c.png", strings.NewReader("c"), "")

	if err := fs.DeletePrefix(ctx, "requests/r1"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if ok, _ := fs.Exists(ctx, "requests/r1/a.png"); ok {
		t.Fatal("expected r1 images removed")
	}
	if ok, _ := fs.Exists(ctx, "requests/r2/c.png"); !ok {
		t.Fatal("expected r2 image kept")
	}
}

func TestDeleteFileIsIdempotent(t *testing.T) {
	fs := newFS(t)
	if err := fs.DeleteFile(context.Background(), "requests/missing.png"); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}
