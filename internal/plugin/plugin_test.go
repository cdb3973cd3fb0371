package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin"
)

func TestCallValidate(t *testing.T) {
	tests := map[string]struct {
		call   plugin.Call
		expErr bool
	}{
		"A valid call should not fail.": {
			call: plugin.Call{Plugin: "mime", Method: plugin.MethodFetch, Args: []string{"/a"}},
		},
		"A call without plugin should fail.": {
			call:   plugin.Call{Method: plugin.MethodFetch},
			expErr: true,
		},
		"A plugin name with a path should fail.": {
			call:   plugin.Call{Plugin: "../../bin/sh", Method: plugin.MethodEntry},
			expErr: true,
		},
		"An unknown method should fail.": {
			call:   plugin.Call{Plugin: "mime", Method: "peek"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.call.Validate()
			if test.expErr {
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
