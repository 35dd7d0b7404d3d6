// Package search holds the company projection used for listing and
// free-text lookup. It is rebuilt from the record store when it drifts.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrIndexNotFound means the index has not been created yet. Callers treat
// it as an empty result, not a failure.
var ErrIndexNotFound = errors.New("search index not found")

// IsNotFound reports whether err means the index does not exist yet.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound)
}

// Document is the denormalized company projection stored in the index.
type Document struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	URL               string    `json:"url"`
	PunchcardLifetime *int      `json:"punchcard_lifetime,omitempty"`
	Created           time.Time `json:"created"`
}

// Index is the narrow surface the services need from a search backend.
type Index interface {
	// Search returns up to size documents starting at offset from. An empty
	// query matches every document.
	Search(ctx context.Context, query string, from, size int) ([]Document, error)
	IndexDocument(ctx context.Context, id string, doc Document) error
	// DeleteDocument succeeds when the document or the index is already gone.
	DeleteDocument(ctx context.Context, id string) error
	EnsureIndex(ctx context.Context) error
	// Reset drops every document and recreates an empty index.
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
}

var (
	_ Index = (*DBIndex)(nil)
	_ Index = (*ElasticIndex)(nil)
)

// Error wraps a failure reported by the search backend.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("search %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrIndexNotFound) {
		return err
	}
	return &Error{Op: op, Err: err}
}
