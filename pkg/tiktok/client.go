// Package tiktok scrapes public TikTok video pages and returns the embedded
// item JSON without going through a paid provider.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	rehydrationSelector = "script#__UNIVERSAL_DATA_FOR_REHYDRATION__"
	sigiSelector        = "script#SIGI_STATE"
	detailItemPath      = `__DEFAULT_SCOPE__.webapp\.video-detail.itemInfo.itemStruct`
)

// ErrNoItem is returned when the page loaded but carried no video item.
var ErrNoItem = eris.New("tiktok: no video item in page")

// Client fetches a single video's item JSON.
type Client interface {
	FetchItem(ctx context.Context, videoURL string) (json.RawMessage, error)
}

// APIError is returned when TikTok responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tiktok: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL sends requests to base instead of the host in the video URL.
// The video URL path is kept.
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a direct-scrape client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FetchItem(ctx context.Context, videoURL string) (json.RawMessage, error) {
	target, err := c.resolve(videoURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "tiktok: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "tiktok: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "tiktok: parse html")
	}
	return ExtractItem(doc)
}

func (c *httpClient) resolve(videoURL string) (string, error) {
	u, err := url.Parse(videoURL)
	if err != nil || u.Host == "" {
		return "", eris.Errorf("tiktok: invalid video url %q", videoURL)
	}
	if c.baseURL == "" {
		return u.String(), nil
	}
	return c.baseURL + u.EscapedPath(), nil
}

// ExtractItem finds the video item in a TikTok page. It reads the current
// rehydration payload first and the older SIGI_STATE payload second.
func ExtractItem(doc *goquery.Document) (json.RawMessage, error) {
	if raw := scriptJSON(doc, rehydrationSelector); raw != "" {
		item := gjson.Get(raw, detailItemPath)
		if item.IsObject() {
			return json.RawMessage(item.Raw), nil
		}
	}

	if raw := scriptJSON(doc, sigiSelector); raw != "" {
		var item gjson.Result
		gjson.Get(raw, "ItemModule").ForEach(func(_, value gjson.Result) bool {
			item = value
			return false
		})
		if item.IsObject() {
			return json.RawMessage(item.Raw), nil
		}
	}

	return nil, ErrNoItem
}

func scriptJSON(doc *goquery.Document, selector string) string {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	if text == "" || !gjson.Valid(text) {
		return ""
	}
	return text
}
