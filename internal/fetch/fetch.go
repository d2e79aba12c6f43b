// Package fetch retrieves job postings from the web and reduces them to the
// plain text fed into application creation and AI structuring.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the fetcher to job boards.
const DefaultUserAgent = "Mozilla/5.0 (compatible; JobPilot/1.0)"

// Posting is the text extracted from a job posting URL.
type Posting struct {
	URL               string
	Title             string
	Description       string
	RenderedInBrowser bool
}

// Error wraps a failure to retrieve or parse a posting URL.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures posting retrieval.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	AllowBrowser   bool
	BrowserTimeout time.Duration
	Verbose        bool
}

// DefaultOptions returns the defaults used by the server.
func DefaultOptions() *Options {
	return &Options{
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		AllowBrowser:   true,
		BrowserTimeout: 45 * time.Second,
	}
}

// postingSelectors are tried in order before falling back to the page body.
var postingSelectors = []string{
	".job-description",
	".job-content",
	"#job-description",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"main",
	"article",
	".content",
	"#content",
}

// JobPosting fetches a posting URL and extracts its description text. When the
// plain HTTP response yields too little text the page is assumed to be a
// JavaScript-rendered SPA and is re-fetched through a headless browser.
func JobPosting(ctx context.Context, urlStr string, opts *Options) (*Posting, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	html, err := fetchHTML(ctx, urlStr, opts)
	if err != nil {
		return nil, err
	}

	posting, err := extractPosting(urlStr, html)
	if err != nil {
		return nil, err
	}

	if opts.AllowBrowser && tooShort(posting.Description) {
		if opts.Verbose {
			log.Printf("[FETCH] Extracted only %d chars from %s, retrying with browser", len(posting.Description), urlStr)
		}
		rendered, berr := renderWithBrowser(ctx, urlStr, opts.BrowserTimeout, opts.Verbose)
		if berr != nil {
			// The static extraction may still be usable, so keep it.
			if opts.Verbose {
				log.Printf("[FETCH] Browser render failed: %v", berr)
			}
			return posting, nil
		}
		browserPosting, eerr := extractPosting(urlStr, rendered)
		if eerr == nil && len(browserPosting.Description) > len(posting.Description) {
			browserPosting.RenderedInBrowser = true
			return browserPosting, nil
		}
	}

	return posting, nil
}

func fetchHTML(ctx context.Context, urlStr string, opts *Options) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	return string(body), nil
}

// extractPosting strips navigation chrome and returns the posting text plus
// the page title.
func extractPosting(urlStr, html string) (*Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to parse HTML", Cause: err}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("nav, footer, header, script, style, noscript, .ad, .ads, .sidebar, .cookie-banner, .popup").Remove()

	var content *goquery.Selection
	for _, selector := range postingSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	return &Posting{
		URL:         urlStr,
		Title:       title,
		Description: collapseWhitespace(content.Text()),
	}, nil
}

func collapseWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}
