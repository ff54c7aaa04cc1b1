package resilience

import (
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("bad request")))

	te := NewTransientError(eris.New("rate limited"), 429)
	assert.True(t, IsTransient(te))
	assert.True(t, IsTransient(fmt.Errorf("call failed: %w", te)), "wrapped transient stays transient")

	assert.True(t, IsTransient(eris.New("read tcp: i/o timeout")))
	assert.True(t, IsTransient(eris.New("dial tcp: lookup api.example.com: no such host")))
	assert.False(t, IsTransient(eris.New("json: cannot unmarshal string")))
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := eris.New("boom")
	te := NewTransientError(inner, 503)
	assert.Equal(t, "boom", te.Error())
	assert.Equal(t, 503, te.StatusCode)
	assert.ErrorIs(t, fmt.Errorf("wrap: %w", te), inner)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}
