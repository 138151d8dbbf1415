package ctxdebugfs

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

type osDebugFS struct {
	dir string
}

func (odfs *osDebugFS) Open(name string) (DebugFSFile, error) {
	return os.OpenFile(filepath.Join(odfs.dir, name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

// NewOSDebugFS stores debug copies under dir, creating it when missing.
func NewOSDebugFS(dir string) (DebugFS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.Errorf("create debug dir: %w", err)
	}
	return &osDebugFS{dir: dir}, nil
}
