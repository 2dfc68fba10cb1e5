// Package api wraps the media catalog endpoints (search, info, stream
// resolution) behind the proxy base url. The rest of the client treats it
// as an opaque result-or-error data source.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the catalog/proxy service.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a Client for the given base url.
func NewClient(base string) (*Client, error) {
	base = strings.TrimRight(base, "/")
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api: invalid base url %q: %w", base, err)
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// SearchResult is one catalog search hit.
type SearchResult struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	PosterImageURL string `json:"poster_image_url,omitempty"`
	ReleaseDate    string `json:"release_date,omitempty"`
}

// SearchPage is a page of search hits.
type SearchPage struct {
	CurrentPage int            `json:"current_page"`
	HasNextPage bool           `json:"has_next_page"`
	Results     []SearchResult `json:"results"`
}

// Episode is one playable entry of a series.
type Episode struct {
	ID     string  `json:"id"`
	Number float64 `json:"number"`
	Title  string  `json:"title,omitempty"`
}

// MediaInfo is the paginated series detail record.
type MediaInfo struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	PosterImageURL string    `json:"poster_image_url,omitempty"`
	TotalEpisodes  int       `json:"total_episodes"`
	Episodes       []Episode `json:"episodes"`
}

// Stream is a resolution-tagged playable link.
type Stream struct {
	URL        string `json:"url"`
	Resolution string `json:"resolution"`
	IsM3U8     bool   `json:"is_m3u8"`
}

// Streams is the stream-resolution response for one episode.
type Streams struct {
	Streams []Stream `json:"streams"`
}

// Search queries the catalog for a title.
func (c *Client) Search(ctx context.Context, query, provider string) (*SearchPage, error) {
	var page SearchPage
	err := c.get(ctx, "/anime/search/"+url.PathEscape(query), url.Values{
		"provider": {provider},
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Info fetches series details; page selects the episode page.
func (c *Client) Info(ctx context.Context, id, provider string, page int) (*MediaInfo, error) {
	query := url.Values{"id": {id}, "provider": {provider}}
	if page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	var info MediaInfo
	if err := c.get(ctx, "/anime/info", query, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Streams resolves the playable links for an episode.
func (c *Client) Streams(ctx context.Context, episodeID string) (*Streams, error) {
	var streams Streams
	err := c.get(ctx, "/anime/streams/"+url.PathEscape(episodeID), nil, &streams)
	if err != nil {
		return nil, err
	}
	return &streams, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("api: %s: unexpected status %d", path, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("api: %s: decode response: %w", path, err)
	}
	return nil
}
