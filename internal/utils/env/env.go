// Package env parses the environment variables given on the command line.
package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/slok/fmsched/internal/model"
)

var keyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSpecs parses `KEY=VALUE` and `KEY` specs, the latter take the value
// from the current environment. Later specs override earlier ones.
func ParseSpecs(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(specs))
	for _, spec := range specs {
		key, value, hasValue := strings.Cut(spec, "=")
		if !keyRegexp.MatchString(key) {
			return nil, fmt.Errorf("invalid environment variable %q: %w", spec, model.ErrNotValid)
		}

		if !hasValue {
			v, ok := os.LookupEnv(key)
			if !ok {
				return nil, fmt.Errorf("environment variable %q is not set: %w", key, model.ErrNotFound)
			}
			value = v
		}

		env[key] = value
	}

	return env, nil
}
