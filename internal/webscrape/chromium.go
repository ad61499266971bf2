package webscrape

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// ChromiumScraper renders pages in headless Chromium and extracts title,
// meta description, and visible body text. Used when no Firecrawl key is
// configured.
type ChromiumScraper struct {
	chromePath string
	timeout    time.Duration
}

func NewChromiumScraper() *ChromiumScraper {
	return &ChromiumScraper{
		chromePath: detectChromePath(),
		timeout:    30 * time.Second,
	}
}

func (c *ChromiumScraper) Scrape(ctx context.Context, url string) Result {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if c.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var html string
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	); err != nil {
		return failure(url, err)
	}
	return extractFromHTML(url, html)
}

func extractFromHTML(url, html string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return failure(url, err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	doc.Find("script, style, noscript").Remove()
	body := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	return Result{
		URL:         url,
		Title:       title,
		Description: strings.TrimSpace(description),
		Content:     truncate(body, MaxContentChars),
		Success:     true,
	}
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
