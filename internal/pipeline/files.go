package pipeline

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/stager/pkg/types"
)

// Files loads input images and stores generated ones.
type Files interface {
	Load(ctx context.Context, path string) (data []byte, mimeType string, err error)
	Save(ctx context.Context, v *types.Version, data []byte, mimeType string) (path string, err error)
}

// FileStore keeps generated images under Root as
// <job>/<asset>/<version><ext>.
type FileStore struct {
	Root string
}

// Load reads an image and guesses its MIME type from the extension.
func (s FileStore) Load(ctx context.Context, path string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", path, err)
	}
	return data, mimeFromPath(path), nil
}

// Save writes the image atomically and returns its path.
func (s FileStore) Save(ctx context.Context, v *types.Version, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.Root, v.JobID, v.AssetID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(dir, v.VersionID+extensionFromMIME(mimeType))

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing image: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing image: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming image: %w", err)
	}
	return path, nil
}

func extensionFromMIME(mt string) string {
	mt = strings.TrimSpace(strings.ToLower(mt))
	switch mt {
	case "image/png", "":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	exts, err := mime.ExtensionsByType(mt)
	if err != nil || len(exts) == 0 {
		return ".png"
	}
	return exts[0]
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
