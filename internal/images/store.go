// Package images stores uploaded article images on disk and hands back
// public URLs for them.
package images

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/khabardesk/khabar/internal/validation"
)

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 5 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Store struct {
	dir     string
	baseURL string
}

// NewStore validates and creates the upload directory. baseURL is the
// public prefix under which the directory is served.
func NewStore(dir, baseURL string) (*Store, error) {
	abs, err := validation.EnsureDataDir(dir)
	if err != nil {
		return nil, fmt.Errorf("upload directory: %w", err)
	}
	return &Store{
		dir:     abs,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string { return s.dir }

// Save writes the image and returns its public URL. The stored name is
// minted here so user-supplied filenames never touch the filesystem.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	name := mintName(ext)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, MaxUploadBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > MaxUploadBytes {
		err = fmt.Errorf("image exceeds %d bytes", MaxUploadBytes)
	}
	if err == nil && written == 0 {
		err = fmt.Errorf("empty image upload")
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}

	return s.baseURL + "/images/" + name, nil
}

func mintName(ext string) string {
	buf := make([]byte, 6)
	rand.Read(buf)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(buf), ext)
}
