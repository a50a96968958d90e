// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by Read when no blob has the given name.
var ErrNotFound = errors.New("blob not found")

// BlobStore keeps named byte blobs. Names use '/' as separator regardless of
// the medium. List returns the names starting with prefix in ascending order.
type BlobStore interface {
	Write(ctx context.Context, name string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// filterSorted keeps the names with the given prefix and sorts them.
func filterSorted(names []string, prefix string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
