//go:build !linux

package file

import (
	"context"
	"fmt"
	"os"
)

func copySparse(_ context.Context, _, _ *os.File, _ int64, _ func(int64)) error {
	return fmt.Errorf("not available on this platform: %w", ErrSparseUnsupported)
}
