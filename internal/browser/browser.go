package browser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is one exclusively-owned rendering session against a single page.
// Callers must Close it on every exit path.
type Session interface {
	Navigate(url string) error
	WaitForSelector(selector string, timeout time.Duration) error
	ElementsHTML(selector string, limit int) ([]string, error)
	Close() error
}

// SessionFactory opens fresh rendering sessions.
type SessionFactory interface {
	NewSession() (Session, error)
}

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// normalized fills gaps in caller-supplied options from the defaults so the
// rest of the package never has to re-check them.
func (o *Options) normalized() *Options {
	if o == nil {
		return DefaultOptions()
	}

	opts := *o
	defaults := DefaultOptions()

	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = defaults.ViewportWidth
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = defaults.ViewportHeight
	}

	return &opts
}

func New(opts *Options) (*Browser, error) {
	opts = opts.normalized()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--user-agent=" + opts.UserAgent,
		},
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent:         &opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	}

	context, err := b.NewContext(contextOpts)
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: b,
		context: context,
		opts:    opts,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

// NewSession opens a fresh page in the shared browser context. The returned
// session owns only that page; closing it leaves the browser running.
func (b *Browser) NewSession() (Session, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))

	return &pageSession{page: page}, nil
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
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

type pageSession struct {
	page playwright.Page
}

func (s *pageSession) Navigate(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	return nil
}

func (s *pageSession) WaitForSelector(selector string, timeout time.Duration) error {
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("timed out waiting for %q: %w", selector, err)
	}

	return nil
}

func (s *pageSession) ElementsHTML(selector string, limit int) ([]string, error) {
	elements, err := s.page.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("failed to locate %q: %w", selector, err)
	}

	if limit > 0 && len(elements) > limit {
		elements = elements[:limit]
	}

	htmls := make([]string, 0, len(elements))
	for _, el := range elements {
		html, err := el.InnerHTML()
		if err != nil {
			return nil, fmt.Errorf("failed to read element HTML: %w", err)
		}
		htmls = append(htmls, html)
	}

	return htmls, nil
}

func (s *pageSession) Close() error {
	return s.page.Close()
}
