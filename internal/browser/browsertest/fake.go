// Package browsertest provides scripted in-memory implementations of the
// browser interfaces for tests.
package browsertest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
)

// Page records every call made to it. Elements and HTML describe what the
// current document contains; OnGoto may swap them per URL.
type Page struct {
	mu sync.Mutex

	Elements map[string][]browser.Element
	HTML     string

	OnGoto     func(p *Page, url string) error
	OnWait     func(p *Page, selector string, opts browser.WaitOptions) error
	OnFill     func(selector, value string) error
	OnClick    func(selector string) error
	QueryError error

	Calls  []string
	Closes int
	url    string
}

func NewPage() *Page {
	return &Page{Elements: map[string][]browser.Element{}}
}

func (p *Page) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, fmt.Sprintf(format, args...))
}

// SetElements replaces the elements matched by selector. Passing none
// removes the selector.
func (p *Page) SetElements(selector string, elements ...browser.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(elements) == 0 {
		delete(p.Elements, selector)
		return
	}
	p.Elements[selector] = elements
}

func (p *Page) Goto(url string) error {
	p.record("goto %s", url)
	p.url = url
	if p.OnGoto != nil {
		return p.OnGoto(p, url)
	}
	return nil
}

func (p *Page) WaitForSelector(selector string, opts browser.WaitOptions) error {
	p.record("wait %s %s", selector, opts.State)
	if p.OnWait != nil {
		return p.OnWait(p, selector, opts)
	}

	// Comma separated selectors match when any part does.
	present := false
	p.mu.Lock()
	for _, part := range strings.Split(selector, ",") {
		if _, ok := p.Elements[strings.TrimSpace(part)]; ok {
			present = true
			break
		}
	}
	p.mu.Unlock()

	switch opts.State {
	case browser.StateDetached:
		if present {
			return fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
		}
	default:
		if !present {
			return fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
		}
	}
	return nil
}

func (p *Page) Query(selector string) (browser.Element, error) {
	p.record("query %s", selector)
	if p.QueryError != nil {
		return nil, p.QueryError
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if els := p.Elements[selector]; len(els) > 0 {
		return els[0], nil
	}
	return nil, nil
}

func (p *Page) QueryAll(selector string) ([]browser.Element, error) {
	p.record("queryAll %s", selector)
	if p.QueryError != nil {
		return nil, p.QueryError
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.Element(nil), p.Elements[selector]...), nil
}

func (p *Page) Fill(selector, value string) error {
	p.record("fill %s=%s", selector, value)
	if p.OnFill != nil {
		return p.OnFill(selector, value)
	}
	return nil
}

func (p *Page) Click(selector string) error {
	p.record("click %s", selector)
	if p.OnClick != nil {
		return p.OnClick(selector)
	}
	return nil
}

func (p *Page) ClickAndWaitForNavigation(selector string) error {
	p.record("submit %s", selector)
	if p.OnClick != nil {
		return p.OnClick(selector)
	}
	return nil
}

func (p *Page) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.HTML, nil
}

func (p *Page) URL() string {
	return p.url
}

func (p *Page) Close() error {
	p.record("close")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closes++
	return nil
}

// CallCount returns how many recorded calls start with prefix.
func (p *Page) CallCount(prefix string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type Element struct {
	Attrs    map[string]string
	Children map[string]*Element
	OnClick  func() error
	Clicks   int
}

func NewElement() *Element {
	return &Element{Attrs: map[string]string{}, Children: map[string]*Element{}}
}

// With adds child under selector and returns the receiver.
func (e *Element) With(selector string, child *Element) *Element {
	e.Children[selector] = child
	return e
}

func (e *Element) Query(selector string) (browser.Element, error) {
	if child, ok := e.Children[selector]; ok && child != nil {
		return child, nil
	}
	return nil, nil
}

func (e *Element) Attribute(name string) (string, error) {
	return e.Attrs[name], nil
}

func (e *Element) Click() error {
	e.Clicks++
	if e.OnClick != nil {
		return e.OnClick()
	}
	return nil
}

// Opener hands out pages built by Build, remembering each one.
type Opener struct {
	Build  func(n int) (*Page, error)
	Opened []*Page
}

func (o *Opener) NewPage() (browser.Page, error) {
	var (
		p   *Page
		err error
	)
	if o.Build != nil {
		p, err = o.Build(len(o.Opened))
	} else {
		p = NewPage()
	}
	if err != nil {
		return nil, err
	}
	o.Opened = append(o.Opened, p)
	return p, nil
}
