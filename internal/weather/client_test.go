package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleFeed = `{
  "actual": {
    "stationmeasurements": [
      {"stationid": 6260, "stationname": "De Bilt", "weatherdescription": "light rain", "temperature": 11.3},
      {"stationid": 6344, "stationname": "Rotterdam", "weatherdescription": "partly cloudy", "temperature": 12.8},
      {"stationid": 0, "stationname": "broken entry"},
      {"stationid": 6391, "stationname": "", "weatherdescription": "no name"}
    ]
  }
}`

func TestStationsParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	stations, err := c.Stations(context.Background())
	if err != nil {
		t.Fatalf("Stations returned error: %v", err)
	}

	if len(stations) != 2 {
		t.Fatalf("expected 2 usable stations, got %d: %+v", len(stations), stations)
	}
	if stations[0].ID != 6260 || stations[0].Name != "De Bilt" {
		t.Fatalf("unexpected first station: %+v", stations[0])
	}
	if stations[1].Description != "partly cloudy" || stations[1].Temperature != 12.8 {
		t.Fatalf("unexpected second station: %+v", stations[1])
	}
}

func TestStationsFeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Stations(context.Background()); err == nil {
		t.Fatal("expected error for non-200 feed response")
	}
}

func TestStationsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Stations(context.Background()); err == nil {
		t.Fatal("expected error for undecodable feed")
	}
}
