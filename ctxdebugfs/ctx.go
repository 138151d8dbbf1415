package ctxdebugfs

import (
	"context"
	"fmt"
)

type key string

const debugFSKey = key("reddlDebugFS")

// WithDebugFS makes Tee copy into fs for everything run under the returned context.
func WithDebugFS(ctx context.Context, fs DebugFS) context.Context {
	return context.WithValue(ctx, debugFSKey, fs)
}

// ExtractDebugFS returns nil when no DebugFS was attached.
func ExtractDebugFS(ctx context.Context) DebugFS {
	v := ctx.Value(debugFSKey)
	if v == nil {
		return nil
	}
	fs, ok := v.(DebugFS)
	if !ok {
		panic(fmt.Errorf("unknown value found in context: %v", v))
	}
	return fs
}
