// Package browsertest provides in-memory fakes for the browser.Page and
// browser.Element interfaces so engine packages can be tested without a
// running browser.
package browsertest

import (
	"strings"
	"sync"
	"time"

	"github.com/harrison/guidewalk/internal/browser"
)

// FakeElement is a scriptable element. Tests hold the pointer and mutate
// fields directly to simulate page state changes between polls.
type FakeElement struct {
	Attrs        map[string]string
	TextContent  string
	VisibleFlag  bool
	EnabledFlag  bool
	DetachedFlag bool

	ClickErr error
	HoverErr error
	FillErr  error

	// OnClick and OnFill run after a successful interaction, letting tests
	// wire side effects such as state transitions or URL changes.
	OnClick func()
	OnFill  func(value string)

	Clicks   int
	Hovers   int
	Scrolls  int
	Filled   []string
	ancestor map[string]*FakeElement
}

// NewElement returns a visible, enabled element with no attributes.
func NewElement() *FakeElement {
	return &FakeElement{
		Attrs:       map[string]string{},
		VisibleFlag: true,
		EnabledFlag: true,
		ancestor:    map[string]*FakeElement{},
	}
}

// WithAttr sets an attribute and returns the element for chaining.
func (e *FakeElement) WithAttr(name, value string) *FakeElement {
	e.Attrs[name] = value
	return e
}

// WithAncestor registers the element returned by Closest for a selector.
func (e *FakeElement) WithAncestor(selector string, ancestor *FakeElement) *FakeElement {
	e.ancestor[selector] = ancestor
	return e
}

var _ browser.Element = (*FakeElement)(nil)

func (e *FakeElement) Attribute(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *FakeElement) Text() string   { return e.TextContent }
func (e *FakeElement) Visible() bool  { return e.VisibleFlag }
func (e *FakeElement) Enabled() bool  { return e.EnabledFlag }
func (e *FakeElement) Detached() bool { return e.DetachedFlag }

func (e *FakeElement) Click() error {
	e.Clicks++
	if e.ClickErr != nil {
		return e.ClickErr
	}
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *FakeElement) Hover() error {
	e.Hovers++
	return e.HoverErr
}

func (e *FakeElement) Fill(value string) error {
	if e.FillErr != nil {
		return e.FillErr
	}
	e.Filled = append(e.Filled, value)
	if e.OnFill != nil {
		e.OnFill(value)
	}
	return nil
}

func (e *FakeElement) ScrollIntoView() error {
	e.Scrolls++
	return nil
}

func (e *FakeElement) Closest(selector string) (browser.Element, bool) {
	a, ok := e.ancestor[selector]
	if !ok || a == nil {
		return nil, false
	}
	return a, true
}

// FakePage is a scriptable page keyed by selector.
type FakePage struct {
	mu sync.Mutex

	URLValue       string
	HTMLValue      string
	HTMLErr        error
	ScreenshotData []byte
	ScreenshotErr  error
	EvalResults    map[string]string
	EvalErr        error
	ConsoleLines   []string

	IdleWaits int
	Captures  []*FakeConsoleCapture

	elements map[string]*FakeElement
	lists    map[string][]*FakeElement
	buttons  map[string]*FakeElement
}

// NewPage returns an empty fake page.
func NewPage() *FakePage {
	return &FakePage{
		URLValue:       "https://app.example.test/guide",
		HTMLValue:      "<html></html>",
		ScreenshotData: []byte("png"),
		EvalResults:    map[string]string{},
		elements:       map[string]*FakeElement{},
		lists:          map[string][]*FakeElement{},
		buttons:        map[string]*FakeElement{},
	}
}

// Set registers the element returned by Find for a selector.
func (p *FakePage) Set(selector string, el *FakeElement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = el
}

// Remove unregisters a selector.
func (p *FakePage) Remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, selector)
}

// SetList registers the elements returned by FindAll for a selector.
func (p *FakePage) SetList(selector string, els ...*FakeElement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists[selector] = els
}

// SetButton registers the element returned by FindButton for a name.
func (p *FakePage) SetButton(name string, el *FakeElement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buttons[strings.ToLower(name)] = el
}

var _ browser.Page = (*FakePage)(nil)

func (p *FakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.URLValue
}

// SetURL changes the reported page location.
func (p *FakePage) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.URLValue = url
}

func (p *FakePage) Find(selector string) (browser.Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[selector]
	if !ok || el == nil {
		return nil, false
	}
	return el, true
}

func (p *FakePage) FindAll(selector string) []browser.Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := p.lists[selector]
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out
}

func (p *FakePage) FindButton(name string) (browser.Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.buttons[strings.ToLower(name)]
	if !ok || el == nil {
		return nil, false
	}
	return el, true
}

func (p *FakePage) HTML() (string, error) {
	return p.HTMLValue, p.HTMLErr
}

func (p *FakePage) Screenshot(fullPage bool) ([]byte, error) {
	return p.ScreenshotData, p.ScreenshotErr
}

func (p *FakePage) Eval(js string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.EvalErr != nil {
		return "", p.EvalErr
	}
	if res, ok := p.EvalResults[js]; ok {
		return res, nil
	}
	return "null", nil
}

func (p *FakePage) WaitRequestIdle(timeout time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IdleWaits++
}

func (p *FakePage) StartConsoleCapture() browser.ConsoleCapture {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &FakeConsoleCapture{page: p}
	p.Captures = append(p.Captures, c)
	return c
}

// FakeConsoleCapture returns the page's scripted console lines and records
// whether the capture was released.
type FakeConsoleCapture struct {
	page    *FakePage
	Stopped bool
}

func (c *FakeConsoleCapture) Errors() []string {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	out := make([]string, len(c.page.ConsoleLines))
	copy(out, c.page.ConsoleLines)
	return out
}

func (c *FakeConsoleCapture) Stop() {
	c.Stopped = true
}
