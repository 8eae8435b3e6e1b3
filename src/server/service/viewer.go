package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/apimgr/earthquakes/src/config"
	"github.com/apimgr/earthquakes/src/server/model"
)

// Viewer session status values
const (
	StatusLoading = "loading"
	StatusReady   = "ready"
	StatusError   = "error"
)

// Viewer theme values
const (
	ThemeDay   = "day"
	ThemeNight = "night"
)

// RenderedPoint is a display point with its current elevation. Elevation is
// derived at read time from the hover target and never stored.
type RenderedPoint struct {
	model.DisplayPoint
	Elevation float64 `json:"elevation"`
}

// ViewerStats summarizes the current filtered set. All fields are zero when
// the filtered set is empty.
type ViewerStats struct {
	Total        int     `json:"total"`
	Filtered     int     `json:"filtered"`
	Visible      int     `json:"visible"`
	MaxMagnitude float64 `json:"maxMagnitude"`
	TsunamiCount int     `json:"tsunamiCount"`
	MeanDepth    float64 `json:"meanDepth"`
}

// ViewerState is the session snapshot returned to clients.
type ViewerState struct {
	ID        string               `json:"id"`
	Status    string               `json:"status"`
	Error     string               `json:"error,omitempty"`
	Progress  int                  `json:"progress"`
	Theme     string               `json:"theme"`
	HoverID   string               `json:"hoverId,omitempty"`
	Filter    model.FilterState    `json:"filter"`
	Animation model.AnimationState `json:"animation"`
	Stats     ViewerStats          `json:"stats"`
}

// ViewerSession holds one client's globe state: the fetched batch, the
// current filter, hover target, theme and animation. All methods are safe
// for concurrent use.
type ViewerSession struct {
	ID string

	mu       sync.Mutex
	status   string
	errMsg   string
	progress int
	theme    string
	hoverID  string
	points   []model.DisplayPoint // enriched batch, source order
	filtered []model.DisplayPoint
	filter   model.FilterState
	anim     model.AnimationState

	earthquakes  *EarthquakeService
	hub          *StreamHub
	progressTick time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewViewerSession creates a session and begins loading in the background.
func NewViewerSession(es *EarthquakeService, progressTick time.Duration) *ViewerSession {
	s := &ViewerSession{
		ID:           uuid.NewString(),
		status:       StatusLoading,
		theme:        ThemeNight,
		filter:       model.DefaultFilterState(time.Now()),
		earthquakes:  es,
		hub:          NewStreamHub(),
		progressTick: progressTick,
		done:         make(chan struct{}),
	}
	go s.hub.Run()
	go s.load()
	return s
}

// load fetches the batch while a ticker advances the simulated progress bar.
// The bar stalls at 90 until the fetch settles.
func (s *ViewerSession) load() {
	ticker := time.NewTicker(s.progressTick)
	defer ticker.Stop()

	fetchDone := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		col, err := s.earthquakes.GetEarthquakes(ctx, Query{})
		if err != nil {
			fetchDone <- err
			return
		}

		s.mu.Lock()
		s.points = model.EnrichEvents(col.Earthquakes)
		s.filtered = s.filter.Apply(s.points)
		s.mu.Unlock()
		fetchDone <- nil
	}()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.progress < 90 {
				s.progress += 10
			}
			progress := s.progress
			s.mu.Unlock()
			s.hub.Broadcast("progress", map[string]int{"progress": progress})

		case err := <-fetchDone:
			s.mu.Lock()
			if err != nil {
				s.status = StatusError
				s.errMsg = err.Error()
				s.progress = 0
			} else {
				s.status = StatusReady
				s.errMsg = ""
				s.progress = 100
			}
			s.mu.Unlock()

			if err != nil {
				log.Printf("Viewer %s load failed: %v", s.ID, err)
				s.hub.Broadcast("error", map[string]string{"details": err.Error()})
			} else {
				s.hub.Broadcast("ready", s.State())
			}
			return

		case <-s.done:
			return
		}
	}
}

// State returns a consistent snapshot of the session.
func (s *ViewerSession) State() ViewerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *ViewerSession) stateLocked() ViewerState {
	maxMag := 0.0
	tsunamis := 0
	depthSum := 0.0
	for i := range s.filtered {
		if m := s.filtered[i].Mag(); m > maxMag {
			maxMag = m
		}
		if s.filtered[i].Tsunami != 0 {
			tsunamis++
		}
		depthSum += s.filtered[i].Depth
	}
	meanDepth := 0.0
	if len(s.filtered) > 0 {
		meanDepth = depthSum / float64(len(s.filtered))
	}
	return ViewerState{
		ID:        s.ID,
		Status:    s.status,
		Error:     s.errMsg,
		Progress:  s.progress,
		Theme:     s.theme,
		HoverID:   s.hoverID,
		Filter:    s.filter,
		Animation: s.anim,
		Stats: ViewerStats{
			Total:        len(s.points),
			Filtered:     len(s.filtered),
			Visible:      s.anim.VisibleCount(len(s.filtered)),
			MaxMagnitude: maxMag,
			TsunamiCount: tsunamis,
			MeanDepth:    meanDepth,
		},
	}
}

// SetFilter replaces the filter and recomputes the filtered set from scratch.
// A running animation stops: its reveal index is meaningless against the new
// subset.
func (s *ViewerSession) SetFilter(f model.FilterState) ViewerState {
	s.mu.Lock()
	s.filter = f
	s.filtered = f.Apply(s.points)
	s.anim.Stop()
	state := s.stateLocked()
	s.mu.Unlock()

	s.hub.Broadcast("filter", state)
	return state
}

// Filter returns the current filter state.
func (s *ViewerSession) Filter() model.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetHover records the hovered point id; empty clears it.
func (s *ViewerSession) SetHover(id string) {
	s.mu.Lock()
	s.hoverID = id
	s.mu.Unlock()
}

// SetTheme switches between day and night. Unknown values are ignored.
func (s *ViewerSession) SetTheme(theme string) bool {
	if theme != ThemeDay && theme != ThemeNight {
		return false
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	s.hub.Broadcast("theme", map[string]string{"theme": theme})
	return true
}

// RenderedPoints returns the rendered prefix of the filtered set with
// per-point elevation. Only the hovered point is raised.
func (s *ViewerSession) RenderedPoints() []RenderedPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.anim.VisibleCount(len(s.filtered))
	out := make([]RenderedPoint, 0, visible)
	for i := 0; i < visible; i++ {
		p := RenderedPoint{DisplayPoint: s.filtered[i]}
		if s.hoverID != "" && s.filtered[i].ID == s.hoverID {
			p.Elevation = model.HoverElevation(s.filtered[i].Mag())
		}
		out = append(out, p)
	}
	return out
}

// StartAnimation begins the timed reveal. It refuses while already running,
// while the filtered set is empty, or before the batch is ready.
func (s *ViewerSession) StartAnimation() bool {
	s.mu.Lock()
	if s.status != StatusReady || !s.anim.Start(len(s.filtered)) {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	go s.runAnimation()
	return true
}

// runAnimation drives the reveal at the fixed tick rate until the state
// machine stops or the session closes.
func (s *ViewerSession) runAnimation() {
	ticker := time.NewTicker(model.AnimationTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.anim.Tick(len(s.filtered))
			frame := s.anim
			visible := s.anim.VisibleCount(len(s.filtered))
			running := s.anim.Running
			s.mu.Unlock()

			s.hub.Broadcast("animation", map[string]interface{}{
				"index":   frame.Index,
				"running": frame.Running,
				"visible": visible,
			})
			if !running {
				return
			}

		case <-s.done:
			return
		}
	}
}

// StopAnimation resets the reveal; the full filtered set renders again.
func (s *ViewerSession) StopAnimation() {
	s.mu.Lock()
	s.anim.Stop()
	frame := s.anim
	s.mu.Unlock()
	s.hub.Broadcast("animation", frame)
}

// Retry re-runs the load after a failure.
func (s *ViewerSession) Retry() bool {
	s.mu.Lock()
	if s.status != StatusError {
		s.mu.Unlock()
		return false
	}
	s.status = StatusLoading
	s.errMsg = ""
	s.progress = 0
	s.mu.Unlock()

	go s.load()
	return true
}

// Hub exposes the session's stream hub for websocket attachment.
func (s *ViewerSession) Hub() *StreamHub {
	return s.hub
}

// Close tears the session down: loaders and animation exit, the hub closes
// every attached stream. Safe to call more than once.
func (s *ViewerSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.Stop()
	})
}

// ViewerManager owns the session store. Sessions expire after the configured
// TTL of inactivity; eviction tears the session down.
type ViewerManager struct {
	sessions     *cache.Cache
	earthquakes  *EarthquakeService
	progressTick time.Duration
}

// NewViewerManager creates a manager with the configured session TTL.
func NewViewerManager(es *EarthquakeService, cfg config.ViewerConfig) *ViewerManager {
	store := cache.New(cfg.SessionTTL(), 10*time.Minute)
	store.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*ViewerSession); ok {
			s.Close()
			log.Printf("Viewer session expired: %s", id)
		}
	})

	return &ViewerManager{
		sessions:     store,
		earthquakes:  es,
		progressTick: cfg.ProgressTick(),
	}
}

// Create starts a new session and begins its load.
func (vm *ViewerManager) Create() *ViewerSession {
	s := NewViewerSession(vm.earthquakes, vm.progressTick)
	vm.sessions.SetDefault(s.ID, s)
	return s
}

// Get looks a session up and refreshes its TTL.
func (vm *ViewerManager) Get(id string) (*ViewerSession, bool) {
	v, found := vm.sessions.Get(id)
	if !found {
		return nil, false
	}
	s := v.(*ViewerSession)
	vm.sessions.SetDefault(id, s)
	return s, true
}

// Delete removes a session; eviction closes it.
func (vm *ViewerManager) Delete(id string) {
	vm.sessions.Delete(id)
}

// SweepExpired evicts idle sessions. Driven by the scheduler.
func (vm *ViewerManager) SweepExpired() {
	vm.sessions.DeleteExpired()
}

// Count returns the number of live sessions.
func (vm *ViewerManager) Count() int {
	return vm.sessions.ItemCount()
}

// Close tears down every session. Delete is used rather than Flush so the
// eviction hook runs for each one.
func (vm *ViewerManager) Close() {
	for id := range vm.sessions.Items() {
		vm.sessions.Delete(id)
	}
}
