// Package metadata probes a stream's public watch page for OpenGraph title
// and image, used to enrich the stream list when the backend record carries
// no description. Probing is best-effort: any failure degrades to the
// backend-provided fields.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sanctuary-live/internal/cache"
	"sanctuary-live/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

const (
	probeTimeout = 10 * time.Second
	cacheTTL     = 1 * time.Hour

	// Some providers refuse requests without a realistic user agent
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxBodyBytes bounds HTML parsing on pathological pages
	maxBodyBytes = 2 * 1024 * 1024
)

// Page is the metadata extracted from a watch page
type Page struct {
	Title       string
	Description string
	Image       string
}

// Probe fetches and caches page metadata
type Probe struct {
	httpClient *http.Client
	cache      *cache.Cache[Page]
	logger     *logger.Logger
}

// NewProbe creates a Probe. A nil httpClient gets a default with a timeout.
func NewProbe(httpClient *http.Client, log *logger.Logger) *Probe {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: probeTimeout}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Probe{
		httpClient: httpClient,
		cache:      cache.New[Page](cacheTTL),
		logger:     log,
	}
}

// Fetch retrieves the page metadata for rawURL, serving from cache when a
// fresh entry exists
func (p *Probe) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if page, ok := p.cache.Get(rawURL); ok {
		return page, nil
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug("metadata probe failed", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return Page{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	page, err := parsePage(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, err
	}

	p.cache.Set(rawURL, page)
	return page, nil
}

// parsePage extracts og: tags, falling back to the document title
func parsePage(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var page Page
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if content == "" {
			return
		}
		switch property {
		case "og:title":
			page.Title = content
		case "og:description":
			page.Description = content
		case "og:image":
			page.Image = content
		}
	})

	if page.Title == "" {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return page, nil
}
