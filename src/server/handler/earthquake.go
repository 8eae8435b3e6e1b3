package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/earthquakes/src/server/metrics"
	"github.com/apimgr/earthquakes/src/server/service"
	"github.com/apimgr/earthquakes/src/utils"
)

// EarthquakeHandler handles earthquake proxy routes
type EarthquakeHandler struct {
	earthquakes *service.EarthquakeService
	logger      *utils.Logger
}

// NewEarthquakeHandler creates a new earthquake handler
func NewEarthquakeHandler(es *service.EarthquakeService, logger *utils.Logger) *EarthquakeHandler {
	return &EarthquakeHandler{
		earthquakes: es,
		logger:      logger,
	}
}

// HandleEarthquakes serves GET /earthquakes: one pass-through fetch against
// the USGS query endpoint, flattened into the proxy shape. Query parameters
// override the derived defaults; anything unrecognized is ignored.
func (h *EarthquakeHandler) HandleEarthquakes(c *gin.Context) {
	q := service.Query{
		StartTime: c.Query("starttime"),
		EndTime:   c.Query("endtime"),
	}

	if raw := c.Query("minmagnitude"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			InvalidInput(c, "minmagnitude must be a number")
			return
		}
		q.MinMagnitude = &v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			InvalidInput(c, "limit must be a positive integer")
			return
		}
		q.Limit = &v
	}

	start := time.Now()
	collection, err := h.earthquakes.GetEarthquakes(c.Request.Context(), q)
	if err != nil {
		metrics.RecordUpstreamFetch("error", time.Since(start), 0)
		h.logger.Error("Upstream earthquake fetch failed: %v", err)

		// Upstream failures surface as a 500 with the cause attached
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch earthquake data",
			"details": err.Error(),
		})
		return
	}
	metrics.RecordUpstreamFetch("ok", time.Since(start), collection.Count)

	c.JSON(http.StatusOK, collection)
}
