package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodBodyAllowed(t *testing.T) {
	tests := []struct {
		method  Method
		allowed bool
	}{
		{MethodGet, false},
		{MethodDelete, false},
		{MethodPatch, true},
		{MethodPost, true},
		{MethodPut, true},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.method.BodyAllowed())
			assert.True(t, tt.method.Valid())
		})
	}
}

func TestMethodValidRejectsUnknown(t *testing.T) {
	assert.False(t, Method("HEAD").Valid())
	assert.False(t, Method("").Valid())
	assert.False(t, Method("HEAD").BodyAllowed())
}
