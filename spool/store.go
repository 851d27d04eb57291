package spool

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("artifact not found")

// Artifact is a single request's copy of uploaded bytes. Each Put yields a
// distinct artifact, so concurrent requests never observe each other's data.
type Artifact interface {

	// Unique name of the artifact within its store.
	Name() string

	// Opens a fresh reader over the stored bytes.
	Open() (io.ReadCloser, error)

	// Removes the stored bytes. Safe to call more than once.
	Release() error
}

// Defines the interface for staging uploaded bytes for the lifetime of a
// request.
type Store interface {

	// Stores a copy of data and returns the artifact holding it. ext is
	// appended to the generated name (e.g. ".jpg").
	Put(ctx context.Context, ext string, data []byte) (Artifact, error)
}
