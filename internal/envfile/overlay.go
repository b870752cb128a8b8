package envfile

import (
	"fmt"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
)

// Override is a single user-supplied assignment.
type Override struct {
	Key   string
	Value string
}

func (o Override) String() string {
	return CanonicalKey(o.Key) + "=" + o.Value
}

// Overlay returns a new Configuration: base with every override applied in
// order. Existing keys keep their position, new keys are appended in the
// order they first appear, and a later override of the same key wins.
// base is not modified.
func Overlay(base *Configuration, overrides []Override) *Configuration {
	out := base.Clone()
	for _, o := range overrides {
		out.Set(o.Key, o.Value)
	}
	return out
}

// ParseOverride parses a single "key=value" argument.
func ParseOverride(s string) (Override, error) {
	key, value, found := strings.Cut(s, "=")
	if !found {
		return Override{}, errors.InvalidArgument(fmt.Sprintf("override %q must have the form key=value", s))
	}
	if strings.TrimSpace(key) == "" {
		return Override{}, errors.InvalidArgument(fmt.Sprintf("override %q has an empty key", s))
	}
	return Override{Key: key, Value: value}, nil
}

// PairOverrides resolves --env values into overrides.
//
// A value of the form key=value stands alone. A bare key takes its value
// from the next positional argument, so "-e debug-level debug" works the
// same as "-e debug-level=debug". Once a bare key has been paired, the
// remaining positional arguments are read as further key value pairs, as in
// "-e debug-level debug hasura-port 8081". It returns the positional
// arguments that were not consumed, which is only possible when no bare
// key was given.
func PairOverrides(envs, positional []string) ([]Override, []string, error) {
	overrides := make([]Override, 0, len(envs))
	rest := positional
	paired := false

	for _, e := range envs {
		if strings.Contains(e, "=") {
			o, err := ParseOverride(e)
			if err != nil {
				return nil, nil, err
			}
			overrides = append(overrides, o)
			continue
		}

		o, remaining, err := takePair(e, rest)
		if err != nil {
			return nil, nil, err
		}
		overrides = append(overrides, o)
		rest = remaining
		paired = true
	}

	if !paired {
		return overrides, rest, nil
	}
	for len(rest) > 0 {
		o, remaining, err := takePair(rest[0], rest[1:])
		if err != nil {
			return nil, nil, err
		}
		overrides = append(overrides, o)
		rest = remaining
	}
	return overrides, nil, nil
}

// takePair builds the override for key from the first of values.
func takePair(key string, values []string) (Override, []string, error) {
	if strings.TrimSpace(key) == "" {
		return Override{}, nil, errors.InvalidArgument("override has an empty key")
	}
	if len(values) == 0 {
		return Override{}, nil, errors.InvalidArgument(fmt.Sprintf("missing value for override %q", key))
	}
	return Override{Key: key, Value: values[0]}, values[1:], nil
}
