// Package browser defines the page abstraction the engine drives and its
// go-rod backed implementation.
//
// The engine never registers callbacks against the page: every wait is a
// bounded poll over the pure read methods below. That keeps the step state
// machine linear and lets tests substitute a fake page with no browser at
// all (see the browsertest subpackage).
package browser

import "time"

// Page is the read/interact surface of a single rendered guide page. Find
// and FindAll are pure reads: they return the current state immediately and
// never wait for elements to appear.
type Page interface {
	// URL returns the page's current location, empty on error.
	URL() string

	// Find returns the first element matching the selector, if any.
	Find(selector string) (Element, bool)

	// FindAll returns all elements matching the selector in document order.
	FindAll(selector string) []Element

	// FindButton locates a button by its accessible name, matching
	// case-insensitively against button and role=button elements.
	FindButton(name string) (Element, bool)

	// HTML returns the full serialized DOM.
	HTML() (string, error)

	// Screenshot captures the viewport, or the full page when fullPage is set.
	Screenshot(fullPage bool) ([]byte, error)

	// Eval runs a JS expression in the page and returns the JSON-encoded
	// result. The expression may return a promise; it is awaited.
	Eval(js string) (string, error)

	// WaitRequestIdle blocks until in-flight network requests settle or the
	// timeout elapses. Best-effort; an unsettled page is not an error.
	WaitRequestIdle(timeout time.Duration)

	// StartConsoleCapture begins collecting console errors and uncaught
	// exceptions. The caller must Stop the capture to release the listener.
	StartConsoleCapture() ConsoleCapture
}

// Element is a handle to one live DOM element. Reads are pure; interactions
// return errors when the element has detached or the action fails.
type Element interface {
	// Attribute returns the named attribute and whether it is present.
	Attribute(name string) (string, bool)

	Text() string
	Visible() bool

	// Enabled reports whether the element accepts interaction (not disabled).
	Enabled() bool

	// Detached reports whether the element is no longer connected to the
	// document, e.g. after a navigation or remount.
	Detached() bool

	Click() error
	Hover() error

	// Fill replaces the element's value with the given text.
	Fill(value string) error

	ScrollIntoView() error

	// Closest returns the nearest ancestor (or self) matching the selector.
	Closest(selector string) (Element, bool)
}

// ConsoleCapture is a scoped console-error listener. Errors returns the
// messages collected so far; Stop releases the underlying listener. Stop is
// idempotent.
type ConsoleCapture interface {
	Errors() []string
	Stop()
}
