package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/apimgr/earthquakes/src/server/model"
)

// HTTPClient wraps the HTTP client with config and cluster failover
type HTTPClient struct {
	CLIConfig     *CLIConfig
	HTTPClient    *http.Client
	currentServer string
	failedServers map[string]bool
}

// DefaultTimeout is the default HTTP request timeout
const DefaultTimeout = 30 * time.Second

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(config *CLIConfig) *HTTPClient {
	timeout := DefaultTimeout
	if config.Server.Timeout > 0 {
		timeout = time.Duration(config.Server.Timeout) * time.Second
	}
	return &HTTPClient{
		CLIConfig: config,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		currentServer: config.GetPrimaryServer(),
		failedServers: make(map[string]bool),
	}
}

// Get performs a GET request, trying the primary then cluster nodes on failure
func (c *HTTPClient) Get(path string) (*http.Response, error) {
	servers := c.CLIConfig.GetAllServers()
	if len(servers) == 0 {
		return nil, NewConnectionError("no servers configured")
	}

	var lastErr error
	for _, server := range servers {
		if c.failedServers[server] {
			continue
		}

		req, err := http.NewRequest(http.MethodGet, server+path, nil)
		if err != nil {
			lastErr = NewConnectionError(fmt.Sprintf("failed to create request: %v", err))
			continue
		}
		req.Header.Set("User-Agent", UserAgent())
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			c.failedServers[server] = true
			lastErr = NewConnectionError(fmt.Sprintf("failed to connect to %s: %v", server, err))
			continue
		}

		c.currentServer = server
		return c.handleResponse(resp)
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, NewConnectionError("all servers unreachable")
}

// handleResponse maps HTTP error statuses onto exit-coded errors
func (c *HTTPClient) handleResponse(resp *http.Response) (*http.Response, error) {
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, NewNotFoundError("resource not found")
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		var errorResp struct {
			Error   string `json:"error"`
			Details string `json:"details"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil {
			if errorResp.Error != "" && errorResp.Details != "" {
				return nil, NewAPIError(errorResp.Error + ": " + errorResp.Details)
			}
			if errorResp.Error != "" {
				return nil, NewAPIError(errorResp.Error)
			}
			if errorResp.Message != "" {
				return nil, NewAPIError(errorResp.Message)
			}
		}

		return nil, NewAPIError(fmt.Sprintf("server error (%d): %s", resp.StatusCode, string(body)))
	}

	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response
func (c *HTTPClient) GetJSON(path string, result interface{}) error {
	resp, err := c.Get(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return NewAPIError(fmt.Sprintf("failed to decode response: %v", err))
	}

	return nil
}

// Feed is the earthquake batch the server returns
type Feed struct {
	Count       int                     `json:"count"`
	Earthquakes []model.EarthquakeEvent `json:"earthquakes"`
	Metadata    model.Metadata          `json:"metadata"`
}

// FeedQuery holds optional upstream overrides
type FeedQuery struct {
	MinMagnitude *float64
	Limit        *int
	StartTime    string
	EndTime      string
}

// FetchEarthquakes pulls the current earthquake batch from the server
func (c *HTTPClient) FetchEarthquakes(q FeedQuery) (*Feed, error) {
	params := url.Values{}
	if q.MinMagnitude != nil {
		params.Set("minmagnitude", strconv.FormatFloat(*q.MinMagnitude, 'f', -1, 64))
	}
	if q.Limit != nil {
		params.Set("limit", strconv.Itoa(*q.Limit))
	}
	if q.StartTime != "" {
		params.Set("starttime", q.StartTime)
	}
	if q.EndTime != "" {
		params.Set("endtime", q.EndTime)
	}

	path := "/earthquakes"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var feed Feed
	if err := c.GetJSON(path, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}
