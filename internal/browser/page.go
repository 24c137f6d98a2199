package browser

import (
	"errors"
	"time"
)

// ErrTimeout is returned by WaitForSelector when the element does not reach
// the requested state in time.
var ErrTimeout = errors.New("timed out waiting for selector")

// WaitState is the element state WaitForSelector blocks on.
type WaitState string

const (
	StateAttached WaitState = "attached"
	StateDetached WaitState = "detached"
	StateVisible  WaitState = "visible"
)

// WaitOptions configures WaitForSelector. A zero Timeout uses the driver
// default.
type WaitOptions struct {
	State   WaitState
	Timeout time.Duration
}

// Page is the subset of a browser tab the repricer drives.
type Page interface {
	// Goto navigates and returns once the DOM content has loaded.
	Goto(url string) error
	WaitForSelector(selector string, opts WaitOptions) error
	// Query returns nil and no error when nothing matches.
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
	Fill(selector, value string) error
	Click(selector string) error
	// ClickAndWaitForNavigation clicks and blocks until the navigation it
	// triggers has loaded its DOM content.
	ClickAndWaitForNavigation(selector string) error
	Content() (string, error)
	URL() string
	Close() error
}

// Element is a handle to a node inside a Page.
type Element interface {
	Query(selector string) (Element, error)
	Attribute(name string) (string, error)
	Click() error
}

// Opener opens new pages in the shared, authenticated browsing context.
type Opener interface {
	NewPage() (Page, error)
}
