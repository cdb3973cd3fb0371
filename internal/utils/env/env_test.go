package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/utils/env"
)

func TestParseSpecs(t *testing.T) {
	t.Setenv("FMSCHED_FROM_HOST", "host-value")

	tests := map[string]struct {
		specs  []string
		expEnv map[string]string
		expErr error
	}{
		"No specs should return no env.": {
			expEnv: nil,
		},
		"KEY=VALUE should parse.": {
			specs:  []string{"FOO=bar=baz", "EMPTY="},
			expEnv: map[string]string{"FOO": "bar=baz", "EMPTY": ""},
		},
		"KEY should inherit from the current environment.": {
			specs:  []string{"FMSCHED_FROM_HOST"},
			expEnv: map[string]string{"FMSCHED_FROM_HOST": "host-value"},
		},
		"Later specs should override earlier ones.": {
			specs:  []string{"FOO=one", "FOO=two"},
			expEnv: map[string]string{"FOO": "two"},
		},
		"A missing inherited variable should fail.": {
			specs:  []string{"FMSCHED_DOES_NOT_EXIST"},
			expErr: model.ErrNotFound,
		},
		"An invalid key should fail.": {
			specs:  []string{"1INVALID=value"},
			expErr: model.ErrNotValid,
		},
		"An empty spec should fail.": {
			specs:  []string{""},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			got, err := env.ParseSpecs(test.specs)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			if assert.NoError(err) {
				assert.Equal(test.expEnv, got)
			}
		})
	}
}
