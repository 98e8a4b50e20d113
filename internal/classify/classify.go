// Package classify maps failure messages and abort reasons to coarse triage
// categories.
//
// Only high-confidence infrastructure causes are auto-classified; everything
// else is routed to human triage as unknown rather than guessed, so the
// content-drift and product-regression buckets are never assigned here
// without further signal.
package classify

import (
	"strings"

	"github.com/harrison/guidewalk/internal/models"
)

// infrastructurePatterns are tested in order against the lowercased message.
// Any match classifies the failure as infrastructure.
var infrastructurePatterns = []string{
	// timeouts
	"timeout",
	"timed out",
	"deadline exceeded",
	"exceeded",
	// network
	"network",
	"dns",
	"connection refused",
	"econnrefused",
	"err_connection",
	"err_name_not_resolved",
	"net::",
	"socket hang up",
	// auth / session expiry
	"401",
	"403",
	"unauthorized",
	"forbidden",
	"session expired",
	"session invalid",
	"not authenticated",
	"login required",
	// browser crashes
	"browser has been closed",
	"target closed",
	"target crashed",
	"page crashed",
	"websocket: close",
	"context canceled",
}

// Classify is a pure function of its inputs. An AUTH_EXPIRED abort is always
// infrastructure; otherwise the message is matched against the fixed
// infrastructure vocabulary, and anything else is unknown.
func Classify(errMsg string, abortReason models.AbortReason) models.Classification {
	if abortReason == models.AbortAuthExpired {
		return models.ClassInfrastructure
	}
	if errMsg == "" {
		return models.ClassUnknown
	}

	lower := strings.ToLower(errMsg)
	for _, pattern := range infrastructurePatterns {
		if strings.Contains(lower, pattern) {
			return models.ClassInfrastructure
		}
	}
	return models.ClassUnknown
}

// ClassifyError is a convenience wrapper for Go errors.
func ClassifyError(err error, abortReason models.AbortReason) models.Classification {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Classify(msg, abortReason)
}
