package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vidhall/internal/domain"
)

// ErrUpstream covers every failure mode of the upstream call: network error,
// non-success status, malformed payload. Callers only learn that the listing
// is unavailable.
var ErrUpstream = errors.New("video listing unavailable")

const popularPageSize = 24

// Client queries the YouTube Data API for popular video listings. One attempt
// per invocation; there is no retry policy.
type Client struct {
	token    string
	endpoint string
	http     *http.Client
}

func NewClient(token, endpoint string, timeout time.Duration) *Client {
	return &Client{
		token:    token,
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// FetchPopular returns the current "most popular" chart in upstream order.
func (c *Client) FetchPopular(ctx context.Context) ([]domain.VideoSummary, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("chart", "mostPopular")
	query.Set("maxResults", fmt.Sprintf("%d", popularPageSize))
	query.Set("key", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/videos?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: upstream status %d", ErrUpstream, resp.StatusCode)
	}

	var payload videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrUpstream, err)
	}

	videos := make([]domain.VideoSummary, 0, len(payload.Items))
	for _, item := range payload.Items {
		thumbnail := item.Snippet.Thumbnails.Medium.URL
		if thumbnail == "" {
			thumbnail = item.Snippet.Thumbnails.Default.URL
		}
		videos = append(videos, domain.VideoSummary{
			ID:           item.ID,
			Title:        item.Snippet.Title,
			Thumbnail:    thumbnail,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}
	return videos, nil
}
