package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/apimgr/earthquakes/src/server/metrics"
	"github.com/apimgr/earthquakes/src/server/model"
	"github.com/apimgr/earthquakes/src/server/service"
	"github.com/apimgr/earthquakes/src/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS middleware owns origin policy for the REST surface;
		// streams follow the same allowance
		return true
	},
}

// ViewerHandler handles viewer session routes
type ViewerHandler struct {
	viewers *service.ViewerManager
	logger  *utils.Logger
}

// NewViewerHandler creates a new viewer handler
func NewViewerHandler(vm *service.ViewerManager, logger *utils.Logger) *ViewerHandler {
	return &ViewerHandler{
		viewers: vm,
		logger:  logger,
	}
}

// session resolves the :id parameter or writes a 404.
func (h *ViewerHandler) session(c *gin.Context) (*service.ViewerSession, bool) {
	s, found := h.viewers.Get(c.Param("id"))
	if !found {
		NotFound(c, "Viewer session not found")
		return nil, false
	}
	return s, true
}

// HandleCreate handles POST /api/v1/viewer
func (h *ViewerHandler) HandleCreate(c *gin.Context) {
	s := h.viewers.Create()
	metrics.ViewerSessionsTotal.Inc()
	metrics.ViewerSessionsActive.Set(float64(h.viewers.Count()))
	h.logger.Info("Viewer session created: %s", s.ID)

	c.JSON(http.StatusCreated, s.State())
}

// HandleState handles GET /api/v1/viewer/:id
func (h *ViewerHandler) HandleState(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	RespondData(c, s.State())
}

// HandleFilter handles PUT /api/v1/viewer/:id/filter. The whole filter is
// replaced atomically; the filtered set recomputes in one pass.
func (h *ViewerHandler) HandleFilter(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var f model.FilterState
	if err := c.ShouldBindJSON(&f); err != nil {
		InvalidInput(c, "Malformed filter body", map[string]interface{}{"details": err.Error()})
		return
	}
	if f.MinMagnitude > f.MaxMagnitude {
		InvalidInput(c, "minMagnitude must not exceed maxMagnitude")
		return
	}
	if f.StartTime != nil && f.EndTime != nil && *f.StartTime > *f.EndTime {
		InvalidInput(c, "startTime must not exceed endTime")
		return
	}
	if f.Region == "" {
		f.Region = model.RegionAll
	}

	metrics.FilterApplications.Inc()
	RespondData(c, s.SetFilter(f))
}

// HandlePoints handles GET /api/v1/viewer/:id/points
func (h *ViewerHandler) HandlePoints(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	points := s.RenderedPoints()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(points),
		"points": points,
	})
}

// HandleHover handles POST /api/v1/viewer/:id/hover
func (h *ViewerHandler) HandleHover(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		InvalidInput(c, "Malformed hover body")
		return
	}

	s.SetHover(body.ID)
	RespondData(c, s.State())
}

// HandleTheme handles POST /api/v1/viewer/:id/theme
func (h *ViewerHandler) HandleTheme(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var body struct {
		Theme string `json:"theme"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		InvalidInput(c, "Malformed theme body")
		return
	}
	if !s.SetTheme(body.Theme) {
		InvalidInput(c, "Theme must be 'day' or 'night'")
		return
	}

	RespondData(c, s.State())
}

// HandleAnimationStart handles POST /api/v1/viewer/:id/animation/start
func (h *ViewerHandler) HandleAnimationStart(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if !s.StartAnimation() {
		Conflict(c, "Animation cannot start: already running, still loading, or nothing to show")
		return
	}

	metrics.AnimationsStarted.Inc()
	RespondData(c, s.State())
}

// HandleAnimationStop handles POST /api/v1/viewer/:id/animation/stop
func (h *ViewerHandler) HandleAnimationStop(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	s.StopAnimation()
	RespondData(c, s.State())
}

// HandleRetry handles POST /api/v1/viewer/:id/retry
func (h *ViewerHandler) HandleRetry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if !s.Retry() {
		Conflict(c, "Retry is only valid after a failed load")
		return
	}

	RespondData(c, s.State())
}

// HandleDelete handles DELETE /api/v1/viewer/:id
func (h *ViewerHandler) HandleDelete(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}

	h.viewers.Delete(c.Param("id"))
	metrics.ViewerSessionsActive.Set(float64(h.viewers.Count()))
	c.Status(http.StatusNoContent)
}

// HandleStream handles GET /api/v1/viewer/:id/stream: upgrades to a
// websocket carrying progress, filter, theme and animation events.
func (h *ViewerHandler) HandleStream(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Stream upgrade failed: %v", err)
		return
	}

	client := &service.StreamClient{
		ID:   uuid.NewString(),
		Conn: conn,
		Hub:  s.Hub(),
		Send: make(chan []byte, 256),
	}
	s.Hub().Attach(client)
	metrics.ViewerStreamsActive.Inc()

	go func() {
		defer metrics.ViewerStreamsActive.Dec()
		client.WritePump()
	}()
	go client.ReadPump()
}
