// Package media loads the static resources a shader description refers to:
// flat images, cubemap faces and raw volume blobs.
package media

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Source opens media resources by the path written in a shader description,
// e.g. "/media/a/52d2a8f514c4fd2d9866587f4d7b2a5bfa1a11a0e772077d7682deb8b3b517e5.jpg".
type Source interface {
	Open(name string) (io.ReadCloser, error)
}

// DirSource resolves resource paths below a directory on disk.
type DirSource struct {
	Root string
}

func (d DirSource) Open(name string) (io.ReadCloser, error) {
	p := filepath.Join(d.Root, filepath.FromSlash(path.Clean("/"+name)))
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FSSource resolves resource paths inside an fs.FS. Leading slashes are dropped.
type FSSource struct {
	FS fs.FS
}

func (s FSSource) Open(name string) (io.ReadCloser, error) {
	p := strings.TrimPrefix(path.Clean("/"+name), "/")
	f, err := s.FS.Open(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ReadAll reads a whole resource.
func ReadAll(src Source, name string) ([]byte, error) {
	r, err := src.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// CubeFaceName returns the resource name of cubemap face k. Face 0 is the
// base name itself, faces 1..5 carry a "_k" suffix before the extension:
// "/media/a/cube.png" -> "/media/a/cube_3.png".
func CubeFaceName(name string, k int) string {
	if k == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), k, ext)
}
