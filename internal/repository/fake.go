package repository

import (
	"context"
	"fmt"
	"sync"
)

// FakeCheckout is the state of one checkout in a FakeBackend.
type FakeCheckout struct {
	URL      string
	Branch   string
	Revision int
	Dirty    bool
	Diverged bool
}

// FakeBackend is an in-memory Backend for tests.
type FakeBackend struct {
	mu sync.Mutex

	// Checkouts maps a path to its checkout.
	Checkouts map[string]*FakeCheckout

	// Upstream maps a URL to the newest revision on the remote.
	Upstream map[string]int

	// Unreachable marks URLs whose remote cannot be contacted.
	Unreachable map[string]bool

	// FailuresBeforeSuccess makes the first N remote calls for a URL fail.
	FailuresBeforeSuccess map[string]int

	// Calls records operations as "op path-or-url".
	Calls []string
}

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Checkouts:             make(map[string]*FakeCheckout),
		Upstream:              make(map[string]int),
		Unreachable:           make(map[string]bool),
		FailuresBeforeSuccess: make(map[string]int),
	}
}

func (f *FakeBackend) Name() string {
	return "fake"
}

func (f *FakeBackend) IsCheckout(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Checkouts[path]
	return ok
}

func (f *FakeBackend) DefaultBranch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "default-branch "+url)
	if err := f.remote(url); err != nil {
		return "", err
	}
	return "master", nil
}

func (f *FakeBackend) Checkout(ctx context.Context, url, branch, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "checkout "+path)
	if err := f.remote(url); err != nil {
		return err
	}
	f.Checkouts[path] = &FakeCheckout{URL: url, Branch: branch, Revision: f.upstream(url)}
	return nil
}

func (f *FakeBackend) RemoteURL(ctx context.Context, path string) (string, error) {
	c, err := f.get(path)
	if err != nil {
		return "", err
	}
	return c.URL, nil
}

func (f *FakeBackend) HasLocalChanges(ctx context.Context, path string) (bool, error) {
	c, err := f.get(path)
	if err != nil {
		return false, err
	}
	return c.Dirty, nil
}

func (f *FakeBackend) Fetch(ctx context.Context, path, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "fetch "+path)
	c, ok := f.Checkouts[path]
	if !ok {
		return fmt.Errorf("no checkout at %s", path)
	}
	return f.remote(c.URL)
}

func (f *FakeBackend) FastForward(ctx context.Context, path, branch string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "fast-forward "+path)
	c, ok := f.Checkouts[path]
	if !ok {
		return false, fmt.Errorf("no checkout at %s", path)
	}
	if c.Diverged {
		return false, fmt.Errorf("not possible to fast-forward")
	}
	if upstream := f.upstream(c.URL); upstream > c.Revision {
		c.Revision = upstream
		return true, nil
	}
	return false, nil
}

func (f *FakeBackend) get(path string) (*FakeCheckout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Checkouts[path]
	if !ok {
		return nil, fmt.Errorf("no checkout at %s", path)
	}
	snapshot := *c
	return &snapshot, nil
}

// upstream returns the remote revision for url, matching remotes the way
// the Manager does. It must be called with f.mu held.
func (f *FakeBackend) upstream(url string) int {
	for remote, rev := range f.Upstream {
		if SameRemote(remote, url) {
			return rev
		}
	}
	return 0
}

// remote must be called with f.mu held.
func (f *FakeBackend) remote(url string) error {
	if f.Unreachable[url] {
		return fmt.Errorf("could not resolve host for %s", url)
	}
	if n := f.FailuresBeforeSuccess[url]; n > 0 {
		f.FailuresBeforeSuccess[url] = n - 1
		return fmt.Errorf("connection reset by peer")
	}
	return nil
}
