// Package clipper turns recipe web pages into Markdown text an extractor can read.
package clipper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// noise is removed before conversion to save model tokens.
const noise = "script, style, noscript, nav, header, footer, aside, iframe, form, button, " +
	".ads, #ads, .advertisement, .comments, .share, .social, .related, .newsletter"

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// Page is the readable content of a web page.
type Page struct {
	URL      string
	Title    string
	Markdown string
}

// Clipper fetches pages and converts them to Markdown.
type Clipper struct {
	httpClient *http.Client
	converter  *md.Converter
}

// New creates a Clipper whose requests time out after timeout.
func New(timeout time.Duration) *Clipper {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Clipper{
		httpClient: &http.Client{Timeout: timeout},
		converter:  converter,
	}
}

// Fetch downloads url and returns its main content as Markdown.
func (c *Clipper) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "pantry-planner/1.0 (+recipe import)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	page, err := c.Convert(resp.Body)
	if err != nil {
		return Page{}, err
	}
	page.URL = url
	return page, nil
}

// Convert strips noise from an HTML document and converts its main content
// (the first <main> or <article>, else <body>) to Markdown.
func (c *Clipper) Convert(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find(noise).Remove()

	content := doc.Find("main, article, [role=main]").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	markdown := c.converter.Convert(content)
	markdown = strings.TrimSpace(excessiveLinesRe.ReplaceAllString(markdown, "\n\n"))

	return Page{Title: title, Markdown: markdown}, nil
}

// ConvertString is Convert for an HTML fragment held in memory.
func (c *Clipper) ConvertString(html string) (Page, error) {
	return c.Convert(strings.NewReader(html))
}
