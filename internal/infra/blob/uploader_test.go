package blob

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"english-mcq-service/internal/domain"
)

func TestUploadWritesUnderUserDir(t *testing.T) {
	dir := t.TempDir()
	up, err := NewFSUploader(dir, "/avatars/")
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}

	url, err := up.Upload(context.Background(), "user-1", "Me.PNG", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "/avatars/user-1/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected url %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "user-1", filepath.Base(url)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	up, err := NewFSUploader(dir, "/avatars")
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	up.maxBytes = 4

	if _, err := up.Upload(context.Background(), "user-1", "script.sh", strings.NewReader("x")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for extension, got %v", err)
	}
	if _, err := up.Upload(context.Background(), "user-1", "big.jpg", bytes.NewReader(make([]byte, 5))); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for size, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "user-1"))
	if len(entries) != 0 {
		t.Fatalf("expected oversized upload removed, found %d files", len(entries))
	}
	if _, err := up.Upload(context.Background(), "../evil", "a.png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected path traversal to be rejected")
	}
}
