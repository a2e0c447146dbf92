// Package platform is the HTTP boundary to the chat workspace API.
// It implements message search for the monitoring pipeline and message
// posting for the notifier.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/internal/monitor"
)

type Client struct {
	httpClient  *http.Client
	searchBase  string
	searchToken string
	postBase    string
	postToken   string
}

func NewClient(monCfg config.MonitoringConfig, notifyCfg config.NotifyConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		searchBase:  monCfg.SearchBaseURL,
		searchToken: monCfg.SearchToken,
		postBase:    notifyCfg.PostBaseURL,
		postToken:   notifyCfg.PostToken,
	}
}

type searchResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages struct {
		Matches []monitor.RawMessage `json:"matches"`
		Paging  struct {
			Page  int `json:"page"`
			Pages int `json:"pages"`
		} `json:"paging"`
	} `json:"messages"`
}

// SearchMessages runs one page of a workspace message search.
func (c *Client) SearchMessages(ctx context.Context, query string, count, page int) (monitor.SearchPage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("page", strconv.Itoa(page))
	params.Set("sort", "timestamp")

	endpoint := c.searchBase + "/search.messages?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return monitor.SearchPage{}, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.searchToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return monitor.SearchPage{}, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return monitor.SearchPage{}, fmt.Errorf("search returned status %d: %s", resp.StatusCode, body)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return monitor.SearchPage{}, fmt.Errorf("decoding search response: %w", err)
	}
	if !parsed.OK {
		return monitor.SearchPage{}, fmt.Errorf("search rejected: %s", parsed.Error)
	}

	return monitor.SearchPage{
		Matches:    parsed.Messages.Matches,
		Page:       parsed.Messages.Paging.Page,
		TotalPages: parsed.Messages.Paging.Pages,
	}, nil
}

// PostRequest is one outbound chat message. ThreadTS targets a thread
// reply; empty posts to the channel top level. Blocks, when set, carry
// the interactive layout and Text becomes the fallback rendering.
type PostRequest struct {
	Channel  string           `json:"channel"`
	ThreadTS string           `json:"thread_ts,omitempty"`
	Text     string           `json:"text"`
	Blocks   []map[string]any `json:"blocks,omitempty"`
}

type postResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	TS    string `json:"ts"`
}

// PostMessage sends a message and returns its timestamp.
func (c *Client) PostMessage(ctx context.Context, post PostRequest) (string, error) {
	payload, err := json.Marshal(post)
	if err != nil {
		return "", fmt.Errorf("marshaling post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.postBase+"/chat.postMessage", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building post request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.postToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("post returned status %d: %s", resp.StatusCode, body)
	}

	var parsed postResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding post response: %w", err)
	}
	if !parsed.OK {
		return "", fmt.Errorf("post rejected: %s", parsed.Error)
	}

	return parsed.TS, nil
}
