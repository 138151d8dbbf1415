// Package ctxdebugfs keeps copies of fetched documents (API responses,
// manifests) for later inspection. The target is carried in a context.
package ctxdebugfs

import (
	"io"
)

type DebugFSFile interface {
	io.WriteCloser
}

type DebugFS interface {
	// Open a fresh, truncated DebugFSFile called name.
	Open(name string) (DebugFSFile, error)
}
