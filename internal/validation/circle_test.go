package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCircleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "plain", input: "Trip Squad", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "whitespace only", input: "   \t", ok: false},
		{name: "maximum length", input: strings.Repeat("é", MaxCircleNameLength), ok: true},
		{name: "too long", input: strings.Repeat("x", MaxCircleNameLength+1), ok: false},
		{name: "padded", input: "  Hikers  ", ok: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCircleName(tc.input)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateCircleDescription(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCircleDescription(""))
	assert.Error(t, ValidateCircleDescription(strings.Repeat("x", MaxCircleDescriptionLength+1)))
}
