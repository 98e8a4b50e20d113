package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// LaunchOptions configures the browser connection.
type LaunchOptions struct {
	// DebuggerURL attaches to an already-running browser. When empty a new
	// browser is launched.
	DebuggerURL string
	Headless    bool
	// NavigationTimeout bounds page navigation and load waits.
	NavigationTimeout time.Duration
}

// Browser owns the underlying rod browser connection.
type Browser struct {
	browser    *rod.Browser
	navTimeout time.Duration
}

// Launch connects to the browser described by opts, launching one when no
// debugger URL is given.
func Launch(opts LaunchOptions) (*Browser, error) {
	controlURL := opts.DebuggerURL
	if controlURL == "" {
		url, err := launcher.New().Headless(opts.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = url
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	navTimeout := opts.NavigationTimeout
	if navTimeout == 0 {
		navTimeout = 30 * time.Second
	}
	return &Browser{browser: b, navTimeout: navTimeout}, nil
}

// OpenPage opens a new page and navigates it to the given URL.
func (b *Browser) OpenPage(url string) (*RodPage, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := page.Timeout(b.navTimeout).Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	// Load completion is best-effort; guides frequently render before load.
	_ = page.Timeout(b.navTimeout).WaitLoad()
	return &RodPage{page: page}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	return b.browser.Close()
}

// RodPage implements Page over a rod page. All element queries use the
// not-found sleeper so reads return immediately instead of retrying; waiting
// is the engine's job, expressed as polls.
type RodPage struct {
	page *rod.Page
}

var _ Page = (*RodPage)(nil)

// URL returns the page's current location, empty on error.
func (p *RodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Find returns the first element matching the selector, if any.
func (p *RodPage) Find(selector string) (Element, bool) {
	el, err := p.page.Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		return nil, false
	}
	return &rodElement{el: el}, true
}

// FindAll returns all matching elements in document order.
func (p *RodPage) FindAll(selector string) []Element {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}

// FindButton locates a button by accessible name, case-insensitively.
func (p *RodPage) FindButton(name string) (Element, bool) {
	pattern := fmt.Sprintf(`/^\s*%s\s*$/i`, regexp.QuoteMeta(name))
	el, err := p.page.Sleeper(rod.NotFoundSleeper).ElementR(`button, [role="button"]`, pattern)
	if err != nil {
		return nil, false
	}
	return &rodElement{el: el}, true
}

// HTML returns the full serialized DOM.
func (p *RodPage) HTML() (string, error) {
	return p.page.HTML()
}

// Screenshot captures the viewport or full page as PNG.
func (p *RodPage) Screenshot(fullPage bool) ([]byte, error) {
	return p.page.Screenshot(fullPage, nil)
}

// Eval runs a JS function expression in the page, awaiting promises, and
// returns the JSON-encoded result.
func (p *RodPage) Eval(js string) (string, error) {
	res, err := p.page.Evaluate(&rod.EvalOptions{
		JS:           js,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return "", fmt.Errorf("eval: %w", err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("eval result: %w", err)
	}
	return string(raw), nil
}

// WaitRequestIdle blocks until network traffic settles or the timeout elapses.
func (p *RodPage) WaitRequestIdle(timeout time.Duration) {
	defer func() {
		// A timed-out idle wait cancels the page context; recover so an
		// unsettled page degrades to a plain delay rather than an error.
		_ = recover()
	}()
	wait := p.page.Timeout(timeout).WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	wait()
}

// StartConsoleCapture subscribes to console error and uncaught exception
// events until Stop is called.
func (p *RodPage) StartConsoleCapture() ConsoleCapture {
	ctx, cancel := context.WithCancel(p.page.GetContext())
	capture := &rodConsoleCapture{cancel: cancel}

	scoped := p.page.Context(ctx)
	go scoped.EachEvent(
		func(ev *proto.RuntimeConsoleAPICalled) {
			if ev.Type != proto.RuntimeConsoleAPICalledTypeError {
				return
			}
			capture.append(stringifyConsoleArgs(ev.Args))
		},
		func(ev *proto.RuntimeExceptionThrown) {
			capture.append(exceptionText(ev))
		},
	)()

	return capture
}

type rodConsoleCapture struct {
	mu     sync.Mutex
	errors []string
	cancel context.CancelFunc
	done   bool
}

func (c *rodConsoleCapture) append(msg string) {
	if msg == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

// Errors returns a copy of the messages collected so far.
func (c *rodConsoleCapture) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

// Stop releases the event listener. Safe to call more than once.
func (c *rodConsoleCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.done = true
	c.cancel()
}

func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}

func exceptionText(ev *proto.RuntimeExceptionThrown) string {
	if ev == nil || ev.ExceptionDetails == nil {
		return ""
	}
	details := ev.ExceptionDetails
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}

type rodElement struct {
	el *rod.Element
}

var _ Element = (*rodElement)(nil)

// Attribute returns the named attribute and whether it is present.
func (e *rodElement) Attribute(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

// Text returns the element's visible text, empty on error.
func (e *rodElement) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return text
}

// Visible reports whether the element is rendered and visible.
func (e *rodElement) Visible() bool {
	visible, err := e.el.Visible()
	if err != nil {
		return false
	}
	return visible
}

// Enabled reports whether the element accepts interaction.
func (e *rodElement) Enabled() bool {
	disabled, err := e.el.Property("disabled")
	if err != nil {
		return false
	}
	return !disabled.Bool()
}

// Detached reports whether the element left the document. Any evaluation
// failure is treated as detachment.
func (e *rodElement) Detached() bool {
	res, err := e.el.Eval(`() => this.isConnected`)
	if err != nil {
		return true
	}
	return !res.Value.Bool()
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Hover() error {
	return e.el.Hover()
}

// Fill replaces the element's value with the given text.
func (e *rodElement) Fill(value string) error {
	if err := e.el.SelectAllText(); err != nil {
		return fmt.Errorf("select text: %w", err)
	}
	if err := e.el.Input(value); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	return nil
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

// Closest returns the nearest ancestor (or self) matching the selector.
func (e *rodElement) Closest(selector string) (Element, bool) {
	el, err := e.el.ElementByJS(rod.Eval(`(s) => this.closest(s)`, selector))
	if err != nil {
		return nil, false
	}
	return &rodElement{el: el}, true
}
