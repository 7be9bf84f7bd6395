// Package pagefetch loads candidate pages in a headless browser to pull the
// copy the crawl export does not carry: the rendered H1 and the first real
// paragraph. The spider export only has metadata columns, so without this
// the on-page rewrite prompt would have to proxy the intro with the meta
// description.
package pagefetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp"
)

// Content is what the browser saw on a candidate page.
type Content struct {
	Title string
	H1    string
	Intro string
}

// Fetcher owns a shared headless browser; each Fetch runs in its own tab.
type Fetcher struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	timeout       time.Duration
}

// New starts the shared browser context. Call Close when done.
func New(timeout time.Duration) *Fetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &Fetcher{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		timeout:       timeout,
	}
}

// Close tears down the browser.
func (f *Fetcher) Close() {
	f.browserCancel()
	f.allocCancel()
}

// extractJS pulls the first H1 text and the first paragraph with enough
// text to plausibly be intro copy rather than boilerplate.
const extractJS = `
(() => {
	const h1 = document.querySelector('h1');
	let intro = '';
	for (const p of document.querySelectorAll('p')) {
		const text = p.textContent.trim();
		if (text.length >= 40) {
			intro = text;
			break;
		}
	}
	return {
		h1: h1 ? h1.textContent.trim() : '',
		intro: intro
	};
})()`

// Fetch navigates to url in a fresh tab and extracts the page content.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Content, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, f.timeout)
	defer timeoutCancel()

	// Propagate caller cancellation into the tab.
	go func() {
		select {
		case <-ctx.Done():
			timeoutCancel()
		case <-timeoutCtx.Done():
		}
	}()

	var pageTitle string
	var extracted struct {
		H1    string `json:"h1"`
		Intro string `json:"intro"`
	}

	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Title(&pageTitle),
		chromedp.Evaluate(extractJS, &extracted),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	log.Debug("Fetched page content", "url", url,
		"h1", extracted.H1, "intro_len", len(extracted.Intro))

	return &Content{
		Title: strings.TrimSpace(pageTitle),
		H1:    extracted.H1,
		Intro: extracted.Intro,
	}, nil
}

// Merge fills missing fetched fields from crawl-export fallbacks. The
// export's meta description stands in for the intro when the page had no
// usable paragraph.
func Merge(fetched *Content, title, h1, metaDescription string) Content {
	merged := Content{Title: title, H1: h1, Intro: metaDescription}
	if fetched == nil {
		return merged
	}
	if fetched.Title != "" {
		merged.Title = fetched.Title
	}
	if fetched.H1 != "" {
		merged.H1 = fetched.H1
	}
	if fetched.Intro != "" {
		merged.Intro = fetched.Intro
	}
	return merged
}
