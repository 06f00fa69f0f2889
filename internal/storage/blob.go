package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

var (
	ErrBadKey   = errors.New("storage: invalid key")
	ErrNotFound = errors.New("storage: object not found")
)

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// CriteriaPrefix is where uploaded criteria documents of an assignment are kept.
func CriteriaPrefix(assignmentID int64) string {
	return fmt.Sprintf("criteria/%d/", assignmentID)
}

// ArchiveCriteria stores an uploaded criteria document under a fresh key.
func ArchiveCriteria(ctx context.Context, bs BlobStore, assignmentID int64, r io.Reader) (string, error) {
	return bs.Put(ctx, CriteriaPrefix(assignmentID)+uuid.NewString()+".yml", r)
}
