package errors

import (
	"fmt"
	"strings"
)

// ItemError pairs a failed item with its error.
type ItemError struct {
	Item string
	Err  error
}

// PartialFailure collects per-item failures of an operation that kept
// going after the first failure.
type PartialFailure struct {
	Operation string
	Total     int
	Failures  []ItemError
}

// NewPartialFailure creates an empty collector for an operation over total items.
func NewPartialFailure(operation string, total int) *PartialFailure {
	return &PartialFailure{Operation: operation, Total: total}
}

// Add records a failure for item.
func (p *PartialFailure) Add(item string, err error) {
	p.Failures = append(p.Failures, ItemError{Item: item, Err: err})
}

// Len returns the number of failed items.
func (p *PartialFailure) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Failures)
}

// Items returns the failed item names in the order they failed.
func (p *PartialFailure) Items() []string {
	items := make([]string, 0, len(p.Failures))
	for _, f := range p.Failures {
		items = append(items, f.Item)
	}
	return items
}

// ErrOrNil returns p as an error when it holds failures, nil otherwise.
func (p *PartialFailure) ErrOrNil() error {
	if p.Len() == 0 {
		return nil
	}
	return p
}

func (p *PartialFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s failed for %d of %d", KindPluginFailure, p.Operation, len(p.Failures), p.Total)
	for _, f := range p.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Item, f.Err)
	}
	return b.String()
}

// Unwrap exposes the item errors to errors.Is and errors.As.
func (p *PartialFailure) Unwrap() []error {
	errs := make([]error, 0, len(p.Failures))
	for _, f := range p.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
