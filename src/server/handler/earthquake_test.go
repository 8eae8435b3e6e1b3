package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/earthquakes/src/config"
	"github.com/apimgr/earthquakes/src/server/service"
	"github.com/apimgr/earthquakes/src/utils"
)

const upstreamFeed = `{
	"type": "FeatureCollection",
	"metadata": {"generated": 1700000100000, "title": "USGS Earthquakes", "count": 1},
	"features": [
		{
			"type": "Feature",
			"id": "us7000abcd",
			"properties": {
				"mag": 6.2,
				"place": "Tokyo, Japan",
				"time": 1700000000000,
				"updated": 1700000050000,
				"url": "https://example.org/us7000abcd",
				"status": "reviewed",
				"tsunami": 0,
				"type": "earthquake",
				"title": "M 6.2 - Tokyo, Japan"
			},
			"geometry": {"type": "Point", "coordinates": [139.7, 35.7, 10.0]}
		}
	]
}`

func testLogger(t *testing.T) *utils.Logger {
	t.Helper()
	logger, err := utils.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return logger
}

func newProxyRouter(t *testing.T, upstream http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	es := service.NewEarthquakeService(config.UpstreamConfig{
		BaseURL:        srv.URL,
		TimeoutSeconds: 5,
		MinMagnitude:   4.5,
		Limit:          1000,
		WindowDays:     30,
	})
	h := NewEarthquakeHandler(es, testLogger(t))

	r := gin.New()
	r.GET("/earthquakes", h.HandleEarthquakes)
	return r
}

func TestHandleEarthquakesProxy(t *testing.T) {
	r := newProxyRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/earthquakes", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Count       int `json:"count"`
		Earthquakes []struct {
			ID  string  `json:"id"`
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"earthquakes"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}

	if body.Count != 1 || len(body.Earthquakes) != 1 {
		t.Fatalf("count = %d, events = %d", body.Count, len(body.Earthquakes))
	}
	if body.Earthquakes[0].ID != "us7000abcd" {
		t.Errorf("id = %s", body.Earthquakes[0].ID)
	}
	if body.Earthquakes[0].Lat != 35.7 || body.Earthquakes[0].Lng != 139.7 {
		t.Errorf("coords = (%v, %v)", body.Earthquakes[0].Lat, body.Earthquakes[0].Lng)
	}
	if body.Metadata["title"] != "USGS Earthquakes" {
		t.Errorf("metadata title = %v", body.Metadata["title"])
	}
}

func TestHandleEarthquakesForwardsOverrides(t *testing.T) {
	var captured url.Values
	r := newProxyRouter(t, func(w http.ResponseWriter, req *http.Request) {
		captured = req.URL.Query()
		w.Write([]byte(`{"type":"FeatureCollection","metadata":{},"features":[]}`))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/earthquakes?minmagnitude=6&limit=50&starttime=2026-07-01&endtime=2026-08-01", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if captured.Get("minmagnitude") != "6" || captured.Get("limit") != "50" {
		t.Errorf("overrides not forwarded: %v", captured)
	}
	if captured.Get("starttime") != "2026-07-01" || captured.Get("endtime") != "2026-08-01" {
		t.Errorf("date overrides not forwarded: %v", captured)
	}
}

func TestHandleEarthquakesUpstreamError(t *testing.T) {
	r := newProxyRouter(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/earthquakes", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error JSON: %v", err)
	}
	if body["error"] == "" || body["details"] == "" {
		t.Errorf("error body should carry error and details, got %v", body)
	}
}

func TestHandleEarthquakesEmptyBatch(t *testing.T) {
	r := newProxyRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"type":"FeatureCollection","metadata":{"count":0}}`))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/earthquakes", nil)
	r.ServeHTTP(w, req)

	// An empty window is a valid result, not an error
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Count       int           `json:"count"`
		Earthquakes []interface{} `json:"earthquakes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if body.Count != 0 || body.Earthquakes == nil {
		t.Errorf("want empty non-null list, got %s", w.Body.String())
	}
}

func TestHandleEarthquakesRejectsBadParams(t *testing.T) {
	r := newProxyRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})

	for _, path := range []string{
		"/earthquakes?minmagnitude=abc",
		"/earthquakes?limit=0",
		"/earthquakes?limit=many",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}
