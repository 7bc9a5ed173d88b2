// Package discord implements the Discord message source for wirereport.
// It reads a guild's curated feed channels through the REST API; no
// gateway connection is needed since the pipeline only ever looks
// backward through history.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	maxRetries       = 3
	initialBackoff   = time.Second
	maxResponseBytes = 10 << 20 // prevent unbounded reads from API responses
	pageLimit        = 100
)

// Client is a thin HTTP wrapper around the Discord REST API.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Discord API client.
func NewClient(token, baseURL string) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// get sends a GET request to the given API path and decodes the response.
// It handles 429 rate limiting with Retry-After (max 3 retries, exponential
// backoff).
func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T
	url := c.baseURL + path
	backoff := initialBackoff

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return zero, fmt.Errorf("discord: create request: %w", err)
		}
		req.Header.Set("Authorization", c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return zero, fmt.Errorf("discord: request %s: %w", path, err)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if err != nil {
			return zero, fmt.Errorf("discord: read response for %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries-1 {
			if after := resp.Header.Get("Retry-After"); after != "" {
				if secs, err := strconv.ParseFloat(after, 64); err == nil && secs > 0 {
					backoff = time.Duration(secs * float64(time.Second))
				}
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return zero, fmt.Errorf("discord: %s returned status %d", path, resp.StatusCode)
		}

		var result T
		if err := json.Unmarshal(body, &result); err != nil {
			return zero, fmt.Errorf("discord: decode response for %s: %w", path, err)
		}
		return result, nil
	}

	return zero, fmt.Errorf("discord: %s: max retries exceeded", path)
}

// GuildChannels fetches every channel in a guild, unfiltered.
func (c *Client) GuildChannels(ctx context.Context, guildID string) ([]apiChannel, error) {
	return get[[]apiChannel](ctx, c, "/guilds/"+guildID+"/channels")
}

// Messages fetches one page of a channel's history, most recent first. A
// non-empty beforeID anchors the page strictly before that message.
func (c *Client) Messages(ctx context.Context, channelID, beforeID string) ([]apiMessage, error) {
	path := fmt.Sprintf("/channels/%s/messages?limit=%d", channelID, pageLimit)
	if beforeID != "" {
		path += "&before=" + beforeID
	}
	return get[[]apiMessage](ctx, c, path)
}
