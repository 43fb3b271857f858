package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"tour-ops-backend/config"
)

const defaultPageSize = 100

// Client pages through the remote booking API.
type Client struct {
	cfg    config.FeedConfig
	client *http.Client
}

// NewClient creates a booking API client, routed through the configured proxy if any.
func NewClient(cfg config.FeedConfig) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn().Err(err).Str("proxy", cfg.HTTPProxy).Msg("invalid proxy URL, booking feed will not use a proxy")
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

// Fetch returns every booking the API reports for day ("2006-01-02").
// Any failed page fails the whole fetch, and so does a result shorter than
// the total the API announced.
func (c *Client) Fetch(ctx context.Context, day string) ([]ApiBooking, error) {
	var all []ApiBooking
	total := 0

	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, day, page)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", page, day, err)
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		all = append(all, resp.Data.Items...)
		log.Debug().Str("day", day).Int("page", page).Int("page_size", resp.Data.PageSize).Int("total", total).Int("fetched", len(all)).Msg("fetched booking page")
		if len(all) >= total {
			break
		}
	}

	if len(all) < total {
		return nil, fmt.Errorf("incomplete result for %s: got %d of %d bookings", day, len(all), total)
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, day string, page int) (*ApiResponse, error) {
	payload := make(map[string]any, len(c.cfg.Request.Payload)+3)
	for k, v := range c.cfg.Request.Payload {
		payload[k] = v
	}
	payload["date"] = day
	payload["page"] = page
	payload["pageSize"] = c.cfg.Request.PageSize
	if c.cfg.Request.PageSize <= 0 {
		payload["pageSize"] = defaultPageSize
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Request.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.cfg.Request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp ApiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}

	if apiResp.Code != 0 {
		return nil, fmt.Errorf("API returned non-zero application code: %d", apiResp.Code)
	}
	return &apiResp, nil
}
