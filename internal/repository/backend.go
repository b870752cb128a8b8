package repository

import (
	"context"
)

// Backend performs source control operations on a single checkout.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// IsCheckout reports whether path already holds a checkout.
	IsCheckout(path string) bool

	// DefaultBranch asks the remote for the branch its HEAD points at.
	DefaultBranch(ctx context.Context, url string) (string, error)

	// Checkout creates a checkout of url at branch in path. The directory
	// may already exist and contain untracked files.
	Checkout(ctx context.Context, url, branch, path string) error

	// RemoteURL returns the origin URL of the checkout at path.
	RemoteURL(ctx context.Context, path string) (string, error)

	// HasLocalChanges reports whether tracked files differ from HEAD.
	HasLocalChanges(ctx context.Context, path string) (bool, error)

	// Fetch retrieves branch from origin without touching the working tree.
	Fetch(ctx context.Context, path, branch string) error

	// FastForward moves the checkout to the fetched branch. It reports
	// whether HEAD moved and fails if history has diverged.
	FastForward(ctx context.Context, path, branch string) (bool, error)
}
