// internal/weather/client.go
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Station is one reporting weather station with its current measurement.
type Station struct {
	ID          int     `json:"stationid"`
	Name        string  `json:"stationname"`
	Description string  `json:"weatherdescription"`
	Temperature float64 `json:"temperature"`
}

type feed struct {
	Actual struct {
		StationMeasurements []Station `json:"stationmeasurements"`
	} `json:"actual"`
}

// Client fetches the current station measurements from a Buienradar-shaped
// JSON feed. The feed is a black box: any fetch or decode problem is one
// error, left to the caller's retry policy.
type Client struct {
	feedURL string
	http    *http.Client
}

func NewClient(feedURL string, timeout time.Duration) *Client {
	return &Client{
		feedURL: feedURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Stations(ctx context.Context) ([]Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather feed returned status %d", resp.StatusCode)
	}

	var payload feed
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather feed: %w", err)
	}

	stations := make([]Station, 0, len(payload.Actual.StationMeasurements))
	for _, st := range payload.Actual.StationMeasurements {
		if st.ID <= 0 || st.Name == "" {
			continue
		}
		stations = append(stations, st)
	}
	return stations, nil
}
