// Package session provides the lightweight authenticated-session probe the
// orchestrator runs between steps.
package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harrison/guidewalk/internal/browser"
)

// DefaultEndpoint is the authenticated endpoint probed when none is
// configured.
const DefaultEndpoint = "/api/v1/me"

// Validator checks whether the authenticated session behind the page is
// still valid.
type Validator struct {
	endpoint string
}

// NewValidator returns a validator probing the given endpoint, falling back
// to DefaultEndpoint when empty.
func NewValidator(endpoint string) *Validator {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Validator{endpoint: endpoint}
}

// IsValid performs one cheap fetch against the authenticated endpoint inside
// the page context. Any status below 400 counts as valid; a network failure
// or unreadable response counts as invalid.
func (v *Validator) IsValid(page browser.Page) bool {
	js := fmt.Sprintf(`() => fetch(%q, {credentials: "same-origin"}).then(r => r.status).catch(() => 0)`, v.endpoint)
	res, err := page.Eval(js)
	if err != nil {
		return false
	}
	status, err := strconv.Atoi(strings.TrimSpace(res))
	if err != nil {
		return false
	}
	return status >= 200 && status < 400
}
