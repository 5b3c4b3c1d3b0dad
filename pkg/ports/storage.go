package ports

import (
	"context"
	"io"

	"github.com/aretw0/msquare/pkg/domain"
)

// MediaStorage is the bucket holding uploaded media objects.
type MediaStorage interface {
	// Put writes the object at path and returns its public URL.
	Put(ctx context.Context, path string, r io.Reader) (url string, err error)

	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// Mailer delivers rendered emails.
type Mailer interface {
	Send(ctx context.Context, email domain.Email) error
}
