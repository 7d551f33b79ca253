// Package scraper imports web pages as plain text. It crawls same-host links
// breadth-limited by depth and page count, paced by a token bucket.
package scraper

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
	"golang.org/x/time/rate"
)

type ScraperConfig struct {
	BaseURL           string
	MaxDepth          int
	MaxPages          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	OnProgress        func(url string)
	Logger            *log.Logger
}

// Page is the extracted text of one fetched URL.
type Page struct {
	URL     string
	Title   string
	Content string
	Depth   int
}

// Name returns the page title, or its URL when the page has none.
func (p Page) Name() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return p.URL
}

type Scraper struct {
	config   ScraperConfig
	client   *http.Client
	limiter  *rate.Limiter
	baseHost string
	logger   *log.Logger
}

// crawl holds the state of one Scrape call.
type crawl struct {
	visited map[string]bool
	pages   []Page
}

func NewWithConfig(config ScraperConfig) (*Scraper, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 1
	}
	if config.MaxPages == 0 {
		config.MaxPages = 50
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", config.BaseURL)
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
		logger:   config.Logger,
	}, nil
}

func New(baseURL string) (*Scraper, error) {
	return NewWithConfig(ScraperConfig{
		BaseURL: baseURL,
	})
}

func (s *Scraper) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false
	}
	if parsedURL.Host != s.baseHost {
		return false
	}

	path := strings.ToLower(parsedURL.Path)
	validExt := false
	for _, allowedExt := range s.config.AllowedExtensions {
		if strings.HasSuffix(path, allowedExt) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	for _, pattern := range s.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

// cleanContent collapses whitespace and strips boilerplate phrases.
func cleanContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")

	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}

	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}

func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer").Remove()

	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".documentation",
		"#documentation",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	if strings.TrimSpace(content) == "" {
		content = doc.Find("body").Text()
	}

	return cleanContent(content)
}

// ExtractText parses an HTML document and returns its title and main text.
func ExtractText(r io.Reader) (title, content string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	return title, extractMainContent(doc), nil
}

// Scrape fetches startURL and follows same-host links up to MaxDepth,
// stopping after MaxPages pages. Pages without text are dropped. Errors on
// linked pages are logged; only a failure on startURL is returned.
func (s *Scraper) Scrape(ctx context.Context, startURL string) ([]Page, error) {
	c := &crawl{visited: make(map[string]bool)}
	if !s.shouldProcessURL(startURL) {
		return nil, fmt.Errorf("URL %s is outside the allowed scope", startURL)
	}
	if err := s.scrapeRecursive(ctx, c, startURL, 0); err != nil {
		return nil, err
	}
	return c.pages, nil
}

func (s *Scraper) scrapeRecursive(ctx context.Context, c *crawl, urlStr string, depth int) error {
	if depth > s.config.MaxDepth || c.visited[urlStr] || len(c.visited) >= s.config.MaxPages {
		return nil
	}
	if !s.shouldProcessURL(urlStr) {
		return nil
	}

	c.visited[urlStr] = true
	if s.config.OnProgress != nil {
		s.config.OnProgress(urlStr)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	// collect links before extraction strips nav
	var links []string
	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, _ := selection.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			s.logger.Printf("Error parsing URL: %v", err)
			return
		}
		abs := resp.Request.URL.ResolveReference(ref)
		abs.Fragment = ""
		links = append(links, abs.String())
	})

	if content := extractMainContent(doc); content != "" {
		c.pages = append(c.pages, Page{URL: urlStr, Title: title, Content: content, Depth: depth})
	}

	for _, link := range links {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.scrapeRecursive(ctx, c, link, depth+1); err != nil {
			s.logger.Printf("Error scraping URL %s: %v", link, err)
		}
	}

	return nil
}
