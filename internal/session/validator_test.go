package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/guidewalk/internal/browser/browsertest"
)

func probeJS(endpoint string) string {
	return fmt.Sprintf(`() => fetch(%q, {credentials: "same-origin"}).then(r => r.status).catch(() => 0)`, endpoint)
}

func TestIsValidForOKStatus(t *testing.T) {
	page := browsertest.NewPage()
	page.EvalResults[probeJS(DefaultEndpoint)] = "200"

	v := NewValidator("")
	assert.True(t, v.IsValid(page))
}

func TestIsValidForRedirectStatus(t *testing.T) {
	page := browsertest.NewPage()
	page.EvalResults[probeJS("/api/session")] = "302"

	v := NewValidator("/api/session")
	assert.True(t, v.IsValid(page))
}

func TestInvalidForAuthFailure(t *testing.T) {
	page := browsertest.NewPage()
	page.EvalResults[probeJS(DefaultEndpoint)] = "401"

	v := NewValidator("")
	assert.False(t, v.IsValid(page))
}

func TestInvalidForNetworkFailure(t *testing.T) {
	page := browsertest.NewPage()
	page.EvalResults[probeJS(DefaultEndpoint)] = "0"

	v := NewValidator("")
	assert.False(t, v.IsValid(page))
}

func TestInvalidForEvalError(t *testing.T) {
	page := browsertest.NewPage()
	page.EvalErr = errors.New("target closed")

	v := NewValidator("")
	assert.False(t, v.IsValid(page))
}
