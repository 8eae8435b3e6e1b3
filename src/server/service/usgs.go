package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/apimgr/earthquakes/src/config"
	"github.com/apimgr/earthquakes/src/server/model"
)

// EarthquakeService proxies the USGS FDSN event API. Every call goes straight
// to the upstream: no caching, no retries, no throttling on this path.
type EarthquakeService struct {
	client *http.Client

	// mu guards baseURL and defaults against live config reloads
	mu       sync.RWMutex
	baseURL  string
	defaults QueryDefaults
}

// QueryDefaults are applied when the caller omits a parameter.
type QueryDefaults struct {
	MinMagnitude float64
	Limit        int
	WindowDays   int
}

// Query holds the optional caller overrides for one upstream fetch.
// Zero values mean "use the default".
type Query struct {
	MinMagnitude *float64
	Limit        *int
	StartTime    string // YYYY-MM-DD
	EndTime      string // YYYY-MM-DD
}

// EarthquakeCollection is the proxy response shape.
type EarthquakeCollection struct {
	Count       int                     `json:"count"`
	Earthquakes []model.EarthquakeEvent `json:"earthquakes"`
	Metadata    model.Metadata          `json:"metadata"`
}

// usgsGeoJSONResponse mirrors the upstream GeoJSON envelope. Only the fields
// the flattener reads are declared.
type usgsGeoJSONResponse struct {
	Type     string `json:"type"`
	Metadata struct {
		Generated *int64  `json:"generated"`
		URL       *string `json:"url"`
		Title     *string `json:"title"`
		Count     *int    `json:"count"`
	} `json:"metadata"`
	Features []struct {
		Type       string `json:"type"`
		Properties struct {
			Mag     *float64 `json:"mag"`
			Place   string   `json:"place"`
			Time    int64    `json:"time"`
			Updated int64    `json:"updated"`
			URL     string   `json:"url"`
			Status  string   `json:"status"`
			Tsunami int      `json:"tsunami"`
			Type    string   `json:"type"`
			Title   string   `json:"title"`
		} `json:"properties"`
		Geometry struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"` // [longitude, latitude, depth]
		} `json:"geometry"`
		ID string `json:"id"`
	} `json:"features"`
}

// NewEarthquakeService creates an earthquake service from upstream config.
func NewEarthquakeService(cfg config.UpstreamConfig) *EarthquakeService {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &EarthquakeService{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout(),
		},
		baseURL: cfg.BaseURL,
		defaults: QueryDefaults{
			MinMagnitude: cfg.MinMagnitude,
			Limit:        cfg.Limit,
			WindowDays:   cfg.WindowDays,
		},
	}
}

// ApplyConfig swaps upstream settings on config reload. The HTTP client is
// kept; only the endpoint and defaults change.
func (es *EarthquakeService) ApplyConfig(cfg config.UpstreamConfig) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.baseURL = cfg.BaseURL
	es.defaults = QueryDefaults{
		MinMagnitude: cfg.MinMagnitude,
		Limit:        cfg.Limit,
		WindowDays:   cfg.WindowDays,
	}
}

// buildURL assembles the upstream query. Format and ordering are fixed;
// everything else is the caller's value or the derived default.
func (es *EarthquakeService) buildURL(q Query, now time.Time) string {
	es.mu.RLock()
	defer es.mu.RUnlock()

	params := url.Values{}
	params.Set("format", "geojson")
	params.Set("orderby", "time-asc")

	minMag := es.defaults.MinMagnitude
	if q.MinMagnitude != nil {
		minMag = *q.MinMagnitude
	}
	params.Set("minmagnitude", strconv.FormatFloat(minMag, 'f', -1, 64))

	limit := es.defaults.Limit
	if q.Limit != nil {
		limit = *q.Limit
	}
	params.Set("limit", strconv.Itoa(limit))

	start := q.StartTime
	if start == "" {
		start = now.UTC().AddDate(0, 0, -es.defaults.WindowDays).Format("2006-01-02")
	}
	params.Set("starttime", start)

	if q.EndTime != "" {
		params.Set("endtime", q.EndTime)
	}

	return es.baseURL + "?" + params.Encode()
}

// GetEarthquakes fetches and flattens one batch from the upstream.
func (es *EarthquakeService) GetEarthquakes(ctx context.Context, q Query) (*EarthquakeCollection, error) {
	reqURL := es.buildURL(q, time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	resp, err := es.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earthquake data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("USGS API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var usgsData usgsGeoJSONResponse
	if err := json.Unmarshal(body, &usgsData); err != nil {
		return nil, fmt.Errorf("failed to parse earthquake data: %w", err)
	}

	// A batch with no features is a valid empty result, not an error
	earthquakes := make([]model.EarthquakeEvent, 0, len(usgsData.Features))
	for _, feature := range usgsData.Features {
		coords := feature.Geometry.Coordinates
		eq := model.EarthquakeEvent{
			ID:         feature.ID,
			Magnitude:  feature.Properties.Mag,
			Place:      feature.Properties.Place,
			Title:      feature.Properties.Title,
			URL:        feature.Properties.URL,
			Type:       feature.Properties.Type,
			Status:     feature.Properties.Status,
			Time:       feature.Properties.Time,
			TimeString: model.ISOTime(feature.Properties.Time),
			Tsunami:    feature.Properties.Tsunami,
			Updated:    feature.Properties.Updated,
		}
		if len(coords) > 0 {
			eq.Lng = coords[0]
		}
		if len(coords) > 1 {
			eq.Lat = coords[1]
		}
		if len(coords) > 2 {
			eq.Depth = coords[2]
		}
		earthquakes = append(earthquakes, eq)
	}

	return &EarthquakeCollection{
		Count:       len(earthquakes),
		Earthquakes: earthquakes,
		Metadata: model.Metadata{
			Generated: usgsData.Metadata.Generated,
			URL:       usgsData.Metadata.URL,
			Title:     usgsData.Metadata.Title,
			Count:     usgsData.Metadata.Count,
		},
	}, nil
}
