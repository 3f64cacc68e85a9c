package guide

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// Paths of the two upstream page shapes. The site has no versioned API;
// these are the legacy PHP endpoints observed in the wild.
const (
	listingPath = "/programm.php"
	detailPath  = "/detail.php"

	// detailSeite selects the full detail view on the detail endpoint.
	detailSeite = "1"
)

// Client fetches EPG pages from the upstream TV-guide site.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a new guide client. The user agent identifies this tool
// honestly so the site operator can tell it apart from browsers.
func NewClient(baseURL string, timeout time.Duration, version string) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  fmt.Sprintf("epgrec/%s (+https://github.com/smetzlaff/epgrec)", version),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetListing fetches and parses one listing page.
func (c *Client) GetListing(ctx context.Context, channelID string, day int, segment string) (*domain.EPGPage, error) {
	params := url.Values{}
	params.Set("newday", fmt.Sprintf("%d", day))
	params.Set("tvchannelid", channelID)
	params.Set("timeday", segment)

	body, err := c.get(ctx, listingPath, params)
	if err != nil {
		return nil, fmt.Errorf("%w: listing channel=%s day=%d: %v", domain.ErrFetch, channelID, day, err)
	}

	return ParseListing(body, channelID, day), nil
}

// GetProgramDetails fetches and parses the detail page for a broadcast.
func (c *Client) GetProgramDetails(ctx context.Context, broadcastID string) (*domain.ProgramDetails, error) {
	params := url.Values{}
	params.Set("broadcast_id", broadcastID)
	params.Set("seite", detailSeite)

	body, err := c.get(ctx, detailPath, params)
	if err != nil {
		return nil, fmt.Errorf("%w: details broadcast=%s: %v", domain.ErrFetch, broadcastID, err)
	}

	return ParseDetails(body), nil
}

// Ping checks if the guide site answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, listingPath, url.Values{})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (string, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
