// Package blob stores avatar images on the local filesystem.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"english-mcq-service/internal/domain"
	"github.com/google/uuid"
)

// MaxAvatarBytes caps a single avatar upload.
const MaxAvatarBytes = 5 << 20

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// FSUploader writes files to <dir>/<userID>/<uuid><ext> and returns
// <publicBase>/<userID>/<file>.
type FSUploader struct {
	dir        string
	publicBase string
	maxBytes   int64
}

func NewFSUploader(dir, publicBase string) (*FSUploader, error) {
	if dir == "" {
		dir = "./data/avatars"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FSUploader{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
		maxBytes:   MaxAvatarBytes,
	}, nil
}

// Dir is the root the avatar file server should expose.
func (u *FSUploader) Dir() string {
	return u.dir
}

func (u *FSUploader) Upload(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", errors.New("invalid user id")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", domain.InvalidInput("unsupported avatar type %q", ext)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(u.dir, userID, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}

	n, err := io.Copy(f, io.LimitReader(r, u.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > u.maxBytes {
		err = domain.InvalidInput("avatar larger than %d bytes", u.maxBytes)
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return u.publicBase + "/" + path.Join(userID, name), nil
}
