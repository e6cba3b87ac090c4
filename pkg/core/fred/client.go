// Package fred fetches macro series observations from the FRED API.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.stlouisfed.org/fred"

// Observation is one dated value of a series. Value keeps the API's text
// form; FRED marks days without an observation as ".".
type Observation struct {
	Date  time.Time
	Value string
}

// Client queries the FRED series observation endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a FRED client.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("FRED API key is required")
	}
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Observations fetches all observations of a series strictly after the given
// date. A zero time fetches the full history.
func (c *Client) Observations(ctx context.Context, seriesID string, after time.Time) ([]Observation, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("series_id", seriesID)
	params.Set("file_type", "json")
	if !after.IsZero() {
		params.Set("observation_start", after.AddDate(0, 0, 1).Format("2006-01-02"))
	}

	endpoint := fmt.Sprintf("%s/series/observations?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FRED request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("FRED returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse FRED response: %w", err)
	}

	out := make([]Observation, 0, len(payload.Observations))
	for _, o := range payload.Observations {
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			return nil, fmt.Errorf("malformed observation date %q: %w", o.Date, err)
		}
		out = append(out, Observation{Date: d, Value: o.Value})
	}
	return out, nil
}
