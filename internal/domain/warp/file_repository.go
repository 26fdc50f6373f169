package warp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// Layout decides where a world's warps document lives on disk
type Layout struct {
	Root     string
	DirName  string
	FileName string
}

// DefaultLayout matches the layout the warp mod has always written
func DefaultLayout(root string) Layout {
	return Layout{Root: root, DirName: "warp_mod", FileName: "warps.json"}
}

// Path returns <root>/<namespace>/<path>/<dir>/<file> for the world
func (l Layout) Path(worldID world.ID) (string, error) {
	ns := worldID.Namespace()
	if ns == "" {
		ns = world.CoreNamespace
	}
	rel := filepath.Join(ns, filepath.FromSlash(worldID.Path()))
	if worldID.Path() == "" || !filepath.IsLocal(rel) {
		return "", shared.ErrInvalidInput(fmt.Sprintf("world id %q cannot be mapped to a storage path", worldID))
	}
	return filepath.Join(l.Root, rel, l.DirName, l.FileName), nil
}

// FileRepository stores each world's warps as a JSON document under Layout
type FileRepository struct {
	layout Layout
}

// NewFileRepository creates a file-backed warp repository
func NewFileRepository(layout Layout) Repository {
	return &FileRepository{layout: layout}
}

// Load reads and decodes the world's document. A missing file is an empty dictionary.
func (r *FileRepository) Load(_ context.Context, worldID world.ID) (Dictionary, error) {
	path, err := r.layout.Path(worldID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Dictionary{}, nil
	}
	if err != nil {
		return nil, shared.ErrIO(fmt.Sprintf("read %s", path), err)
	}

	warps, err := Decode(data)
	if err != nil {
		return nil, shared.ErrMalformedData(path, err)
	}
	return warps, nil
}

// Save writes the document through a temp file and rename so a failed write
// never leaves a torn document behind. Empty dictionaries delete the document.
func (r *FileRepository) Save(_ context.Context, worldID world.ID, warps Dictionary) error {
	path, err := r.layout.Path(worldID)
	if err != nil {
		return err
	}

	if len(warps) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return shared.ErrIO(fmt.Sprintf("remove %s", path), err)
		}
		return nil
	}

	data, err := Encode(warps)
	if err != nil {
		return shared.ErrIO("encode warps", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return shared.ErrIO(fmt.Sprintf("create %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+"-*.tmp")
	if err != nil {
		return shared.ErrIO(fmt.Sprintf("create temp file in %s", dir), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return shared.ErrIO(fmt.Sprintf("write %s", tmp.Name()), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return shared.ErrIO(fmt.Sprintf("sync %s", tmp.Name()), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return shared.ErrIO(fmt.Sprintf("close %s", tmp.Name()), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return shared.ErrIO(fmt.Sprintf("replace %s", path), err)
	}
	return nil
}
