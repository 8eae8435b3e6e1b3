package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/earthquakes/src/config"
	"github.com/apimgr/earthquakes/src/server/service"
)

func newViewerRouter(t *testing.T, upstream http.HandlerFunc) (*gin.Engine, *service.ViewerManager) {
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
	vm := service.NewViewerManager(es, config.ViewerConfig{
		SessionTTLMinutes: 30,
		ProgressTickMS:    5,
	})
	t.Cleanup(vm.Close)

	h := NewViewerHandler(vm, testLogger(t))

	r := gin.New()
	v1 := r.Group("/api/v1")
	{
		v1.POST("/viewer", h.HandleCreate)
		v1.GET("/viewer/:id", h.HandleState)
		v1.PUT("/viewer/:id/filter", h.HandleFilter)
		v1.GET("/viewer/:id/points", h.HandlePoints)
		v1.POST("/viewer/:id/hover", h.HandleHover)
		v1.POST("/viewer/:id/theme", h.HandleTheme)
		v1.POST("/viewer/:id/animation/start", h.HandleAnimationStart)
		v1.POST("/viewer/:id/animation/stop", h.HandleAnimationStop)
		v1.POST("/viewer/:id/retry", h.HandleRetry)
		v1.DELETE("/viewer/:id", h.HandleDelete)
	}
	return r, vm
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func createReadySession(t *testing.T, r *gin.Engine) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/v1/viewer", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", w.Code)
	}

	var state struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got := doJSON(t, r, http.MethodGet, "/api/v1/viewer/"+state.ID, "")
		json.Unmarshal(got.Body.Bytes(), &state)
		if state.Status == "ready" {
			return state.ID
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session never became ready (last status %s)", state.Status)
	return ""
}

func TestViewerCreateAndState(t *testing.T) {
	r, _ := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})

	id := createReadySession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/viewer/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d", w.Code)
	}

	var state struct {
		Theme string `json:"theme"`
		Stats struct {
			Total    int `json:"total"`
			Filtered int `json:"filtered"`
		} `json:"stats"`
	}
	json.Unmarshal(w.Body.Bytes(), &state)
	if state.Theme != "night" {
		t.Errorf("default theme = %s, want night", state.Theme)
	}
	if state.Stats.Total != 1 || state.Stats.Filtered != 1 {
		t.Errorf("stats = %+v", state.Stats)
	}
}

func TestViewerUnknownSessionIs404(t *testing.T) {
	r, _ := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})

	w := doJSON(t, r, http.MethodGet, "/api/v1/viewer/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestViewerFilterRoundTrip(t *testing.T) {
	r, _ := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})
	id := createReadySession(t, r)

	w := doJSON(t, r, http.MethodPut, "/api/v1/viewer/"+id+"/filter",
		`{"minMagnitude": 7, "maxMagnitude": 10, "region": "all", "searchTerm": ""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("filter status = %d: %s", w.Code, w.Body.String())
	}

	var state struct {
		Stats struct {
			Filtered int `json:"filtered"`
		} `json:"stats"`
	}
	json.Unmarshal(w.Body.Bytes(), &state)
	// The 6.2 event fails a 7.0 lower bound
	if state.Stats.Filtered != 0 {
		t.Errorf("filtered = %d, want 0", state.Stats.Filtered)
	}
}

func TestViewerFilterValidation(t *testing.T) {
	r, _ := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})
	id := createReadySession(t, r)

	tests := []struct {
		name string
		body string
	}{
		{"inverted magnitude bounds", `{"minMagnitude": 8, "maxMagnitude": 4}`},
		{"inverted date bounds", `{"minMagnitude": 0, "maxMagnitude": 10, "startTime": 200, "endTime": 100}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPut, "/api/v1/viewer/"+id+"/filter", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestViewerPointsAndHover(t *testing.T) {
	r, _ := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})
	id := createReadySession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/viewer/"+id+"/hover", `{"id": "us7000abcd"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("hover status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/viewer/"+id+"/points", "")
	if w.Code != http.StatusOK {
		t.Fatalf("points status = %d", w.Code)
	}

	var body struct {
		Count  int `json:"count"`
		Points []struct {
			ID        string  `json:"id"`
			Color     string  `json:"color"`
			Size      float64 `json:"size"`
			Elevation float64 `json:"elevation"`
		} `json:"points"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)

	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	p := body.Points[0]
	if p.Color != "#ff4500" {
		t.Errorf("color = %s, want #ff4500", p.Color)
	}
	if p.Size < 0.92 || p.Size > 0.94 {
		t.Errorf("size = %v, want 0.93", p.Size)
	}
	if p.Elevation < 0.123 || p.Elevation > 0.125 {
		t.Errorf("hovered elevation = %v, want 0.124", p.Elevation)
	}
}

func TestViewerThemeEndpoint(t *testing.T) {
	r, _ := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})
	id := createReadySession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/viewer/"+id+"/theme", `{"theme": "day"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("theme status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/viewer/"+id+"/theme", `{"theme": "sepia"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid theme status = %d, want 400", w.Code)
	}
}

func TestViewerAnimationEndpoints(t *testing.T) {
	r, _ := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})
	id := createReadySession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/viewer/"+id+"/animation/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/viewer/"+id+"/animation/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d", w.Code)
	}

	var state struct {
		Animation struct {
			Index   int  `json:"index"`
			Running bool `json:"running"`
		} `json:"animation"`
	}
	json.Unmarshal(w.Body.Bytes(), &state)
	if state.Animation.Running || state.Animation.Index != 0 {
		t.Errorf("animation should be reset, got %+v", state.Animation)
	}
}

func TestViewerRetryOnlyAfterError(t *testing.T) {
	r, _ := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})
	id := createReadySession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/viewer/"+id+"/retry", "")
	if w.Code != http.StatusConflict {
		t.Errorf("retry from ready = %d, want 409", w.Code)
	}
}

func TestViewerDelete(t *testing.T) {
	r, vm := newViewerRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(upstreamFeed))
	})
	id := createReadySession(t, r)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/viewer/"+id, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}
	if vm.Count() != 0 {
		t.Errorf("manager count = %d, want 0", vm.Count())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/viewer/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("state after delete = %d, want 404", w.Code)
	}
}
