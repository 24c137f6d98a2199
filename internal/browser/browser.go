package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	timeout time.Duration
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ExtraHeaders   map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		// Challenges are solved by hand, so the window stays visible.
		Headless:       false,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-GB,en;q=0.9,es;q=0.8",
		TimezoneID:     "Europe/Madrid",
		Locale:         "en-GB",
		ExtraHeaders: map[string]string{
			"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"DNT":    "1",
		},
	}
}

func New(opts *Options) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	headers := map[string]string{}
	for k, v := range opts.ExtraHeaders {
		headers[k] = v
	}
	if opts.AcceptLanguage != "" {
		headers["Accept-Language"] = opts.AcceptLanguage
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         &opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &opts.Locale,
		TimezoneId:        &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: headers,
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: browser,
		context: context,
		timeout: opts.Timeout,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

// NewPage opens a tab in the shared context, so it inherits the login cookies.
func (b *Browser) NewPage() (Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(b.timeout.Milliseconds()))

	return &pwPage{page: page}, nil
}

func (b *Browser) Close() error {
	var errs []error

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %w", errors.Join(errs...))
	}

	b.logger.Debug("browser closed")
	return nil
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *pwPage) WaitForSelector(selector string, opts WaitOptions) error {
	waitOpts := playwright.PageWaitForSelectorOptions{
		State: selectorState(opts.State),
	}
	if opts.Timeout > 0 {
		waitOpts.Timeout = playwright.Float(float64(opts.Timeout.Milliseconds()))
	}

	_, err := p.page.WaitForSelector(selector, waitOpts)
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrTimeout, selector)
	}
	return err
}

func (p *pwPage) Query(selector string) (Element, error) {
	handle, err := p.page.QuerySelector(selector)
	if err != nil || handle == nil {
		return nil, err
	}
	return &pwElement{handle: handle}, nil
}

func (p *pwPage) QueryAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &pwElement{handle: h})
	}
	return elements, nil
}

func (p *pwPage) Fill(selector, value string) error {
	return p.page.Fill(selector, value)
}

func (p *pwPage) Click(selector string) error {
	return p.page.Click(selector)
}

func (p *pwPage) ClickAndWaitForNavigation(selector string) error {
	_, err := p.page.ExpectNavigation(func() error {
		return p.page.Click(selector)
	}, playwright.PageExpectNavigationOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Close() error {
	return p.page.Close()
}

type pwElement struct {
	handle playwright.ElementHandle
}

func (e *pwElement) Query(selector string) (Element, error) {
	handle, err := e.handle.QuerySelector(selector)
	if err != nil || handle == nil {
		return nil, err
	}
	return &pwElement{handle: handle}, nil
}

func (e *pwElement) Attribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e *pwElement) Click() error {
	return e.handle.Click()
}

func selectorState(s WaitState) *playwright.WaitForSelectorState {
	switch s {
	case StateDetached:
		return playwright.WaitForSelectorStateDetached
	case StateVisible:
		return playwright.WaitForSelectorStateVisible
	default:
		return playwright.WaitForSelectorStateAttached
	}
}
