package arxiv

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-agent/internal/dedup"
	"github.com/helixir/paper-agent/internal/domain"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit (3 requests per second).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSyncLimit is the default maximum entries per feed pull.
	DefaultSyncLimit = 500

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// arxivIDRegex extracts the arXiv ID from the full entry URL, dropping any
// version suffix. Matches patterns like "http://arxiv.org/abs/2301.12345v1"
// or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Categories are the subject categories to follow (e.g. cs.CV, cs.CL).
	Categories []string

	// SyncLimit is the maximum entries to return per feed pull.
	SyncLimit int

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.SyncLimit == 0 {
		c.SyncLimit = DefaultSyncLimit
	}
}

// Client fetches paper metadata from the arXiv Atom API.
type Client struct {
	config     Config
	httpClient *HTTPClient
}

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := NewHTTPClient(HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Latest fetches the newest submissions across the configured categories,
// newest first.
func (c *Client) Latest(ctx context.Context) ([]*domain.Paper, error) {
	if len(c.config.Categories) == 0 {
		return nil, domain.NewValidationError("categories", "at least one category is required")
	}

	searchURL, err := c.buildFeedURL()
	if err != nil {
		return nil, fmt.Errorf("building feed URL: %w", err)
	}

	feed, err := c.fetchFeed(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(feed.Entries))
	for i := range feed.Entries {
		if paper := entryToPaper(&feed.Entries[i]); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// GetByID retrieves a specific paper by its arXiv ID.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"
	query := url.Values{}
	query.Set("id_list", id)
	baseURL.RawQuery = query.Encode()

	feed, err := c.fetchFeed(ctx, baseURL.String())
	if err != nil {
		return nil, err
	}

	if len(feed.Entries) == 0 {
		return nil, domain.NewNotFoundError("paper", id)
	}

	paper := entryToPaper(&feed.Entries[0])
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}
	return paper, nil
}

// fetchFeed executes a GET against the API and decodes the Atom feed.
func (c *Client) fetchFeed(ctx context.Context, feedURL string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &feed, nil
}

// buildFeedURL constructs the category feed URL, newest submissions first.
func (c *Client) buildFeedURL() (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	terms := make([]string, 0, len(c.config.Categories))
	for _, cat := range c.config.Categories {
		terms = append(terms, "cat:"+cat)
	}

	query := url.Values{}
	query.Set("search_query", strings.Join(terms, " OR "))
	query.Set("max_results", strconv.Itoa(c.config.SyncLimit))
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// entryToPaper converts an arXiv Atom entry to a domain Paper. Entries
// without a recognizable ID are dropped; every other field degrades to a
// tolerant default so one odd entry never sinks a whole feed pull.
func entryToPaper(entry *Entry) *domain.Paper {
	if entry == nil {
		return nil
	}

	arxivID := extractArXivID(entry.ID)
	if arxivID == "" {
		return nil
	}

	var publishedAt time.Time
	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			publishedAt = t.UTC()
		}
	}

	names := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		names = append(names, a.Name)
	}
	authors := domain.EncodeAuthors(dedup.CleanAuthors(names))

	title := normalizeWhitespace(entry.Title)
	abstract := normalizeWhitespace(entry.Summary)

	// Extract PDF URL from links
	pdfURL := ""
	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			pdfURL = link.Href
			break
		}
	}
	if pdfURL == "" {
		pdfURL = "http://arxiv.org/pdf/" + arxivID
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}
	primary := entry.PrimaryCategory.Term
	if primary == "" && len(categories) > 0 {
		primary = categories[0]
	}

	return &domain.Paper{
		ID:              arxivID,
		Title:           title,
		Abstract:        abstract,
		Authors:         authors,
		PublishedAt:     publishedAt,
		CategoryPrimary: primary,
		AllCategories:   encodeCategories(categories),
		PDFURL:          pdfURL,
		Status:          domain.StatusNew,
	}
}

// encodeCategories serializes a category list to its stored JSON form.
func encodeCategories(categories []string) string {
	data, err := json.Marshal(categories)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses multiple whitespace characters.
func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	// Collapse multiple whitespace (including newlines) into single spaces
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
