package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PublicPrefix is the URL path the API serves uploaded files under.
const PublicPrefix = "/public/uploads/"

// Disk keeps uploads in a local directory. References are URL paths below
// PublicPrefix.
type Disk struct {
	root string
}

func New(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	return &Disk{root: root}, nil
}

func (d *Disk) Root() string {
	return d.root
}

func (d *Disk) Upload(ctx context.Context, body io.ReadSeeker, folder, filename, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(d.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := filepath.Base(filename)

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	return path.Join(PublicPrefix, folder, name), nil
}

// Remove deletes a file previously returned by Upload. Missing files and
// references outside the uploads tree are ignored.
func (d *Disk) Remove(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, PublicPrefix) {
		return nil
	}

	rel := path.Clean(strings.TrimPrefix(ref, PublicPrefix))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}

	err := os.Remove(filepath.Join(d.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
