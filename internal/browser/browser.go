package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/spf13/afero"
)

// Options configures the browser session
type Options struct {
	Width      int
	Height     int
	Headless   bool
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	Timeout    time.Duration
	Fs         afero.Fs // Where screenshots are written (default OS)
}

// Browser wraps a rod browser and its single page. It implements Driver.
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	opts    Options
}

// Launch starts Chromium and opens url
func Launch(url string, opts Options) (*Browser, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	l := launcher.New().Headless(opts.Headless)
	if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	rb, err := connect(u, l)
	if err != nil {
		return nil, err
	}

	page, err := rb.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = rb.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if opts.Width > 0 && opts.Height > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = rb.Close()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	b := &Browser{browser: rb, page: page, opts: opts}
	if err := b.Navigate(context.Background(), url); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// killer stops a launched browser process
type killer interface {
	Kill()
}

// connect attaches to the browser at controlURL, killing the launched
// process when it cannot be reached
func connect(controlURL string, proc killer) (*rod.Browser, error) {
	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		proc.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return rb, nil
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		_ = b.browser.Close()
	}
}

// pageFor returns the page bound to ctx and the configured timeout
func (b *Browser) pageFor(ctx context.Context) *rod.Page {
	return b.page.Context(ctx).Timeout(b.opts.Timeout)
}

// Navigate opens url and waits for the load event
func (b *Browser) Navigate(ctx context.Context, url string) error {
	p := b.pageFor(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s: %w", url, err)
	}
	return nil
}

// isXPath reports whether a locator is an XPath expression rather than CSS
func isXPath(locator string) bool {
	return strings.HasPrefix(locator, "/") || strings.HasPrefix(locator, "(")
}

func (b *Browser) element(ctx context.Context, locator string) (*rod.Element, error) {
	p := b.pageFor(ctx)
	var (
		el  *rod.Element
		err error
	)
	if isXPath(locator) {
		el, err = p.ElementX(locator)
	} else {
		el, err = p.Element(locator)
	}
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", locator, err)
	}
	return el, nil
}

// Click clicks the element matching locator
func (b *Browser) Click(ctx context.Context, locator string) error {
	el, err := b.element(ctx, locator)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Fill replaces the element's text with value
func (b *Browser) Fill(ctx context.Context, locator, value string) error {
	el, err := b.element(ctx, locator)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select text of %s: %w", locator, err)
	}
	return el.Input(value)
}

// Screenshot writes a PNG of the viewport to path
func (b *Browser) Screenshot(ctx context.Context, path string) error {
	data, err := b.pageFor(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return afero.WriteFile(b.opts.Fs, path, data, 0o644)
}

// Text returns the text content of the element matching locator
func (b *Browser) Text(ctx context.Context, locator string) (string, error) {
	el, err := b.element(ctx, locator)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Count returns how many elements match locator
func (b *Browser) Count(ctx context.Context, locator string) (int, error) {
	p := b.pageFor(ctx)
	var (
		els rod.Elements
		err error
	)
	if isXPath(locator) {
		els, err = p.ElementsX(locator)
	} else {
		els, err = p.Elements(locator)
	}
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// HTML returns the page's current HTML
func (b *Browser) HTML(ctx context.Context) (string, error) {
	return b.pageFor(ctx).HTML()
}
