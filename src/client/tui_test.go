package client

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/apimgr/earthquakes/src/server/model"
)

func event(id string, mag float64, place string) model.EarthquakeEvent {
	return model.EarthquakeEvent{
		ID:         id,
		Magnitude:  &mag,
		Place:      place,
		Lng:        139.7,
		Lat:        35.7,
		Time:       time.Now().UnixMilli(),
		TimeString: model.ISOTime(time.Now().UnixMilli()),
	}
}

func readyTUI(t *testing.T, events ...model.EarthquakeEvent) tuiModel {
	t.Helper()
	m := newTUIModel(DefaultCLIConfig())
	updated, _ := m.Update(feedMsg{feed: &Feed{Count: len(events), Earthquakes: events}})
	return updated.(tuiModel)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTUILoadsFeed(t *testing.T) {
	m := readyTUI(t, event("us1", 6.2, "Tokyo, Japan"), event("us2", 5.1, "Santiago, Chile"))

	if m.loading {
		t.Error("still loading after feed message")
	}
	if len(m.points) != 2 || len(m.filtered) != 2 {
		t.Errorf("points = %d, filtered = %d", len(m.points), len(m.filtered))
	}
}

func TestTUILoadError(t *testing.T) {
	m := newTUIModel(DefaultCLIConfig())
	updated, _ := m.Update(feedMsg{err: errors.New("connection refused")})
	m = updated.(tuiModel)

	if m.err == nil {
		t.Fatal("error not recorded")
	}
	if len(m.filtered) != 0 {
		t.Errorf("filtered = %d, want 0", len(m.filtered))
	}
}

func TestTUIReplayLifecycle(t *testing.T) {
	m := readyTUI(t, event("us1", 6.2, "Tokyo, Japan"), event("us2", 5.1, "Santiago, Chile"))

	// Space starts the reveal and schedules a tick
	updated, cmd := m.Update(key(" "))
	m = updated.(tuiModel)
	if !m.anim.Running {
		t.Fatal("reveal did not start")
	}
	if cmd == nil {
		t.Fatal("no tick scheduled")
	}

	// Two ticks walk off the end and reset
	updated, _ = m.Update(revealTickMsg(time.Now()))
	m = updated.(tuiModel)
	if !m.anim.Running || m.anim.Index != 1 {
		t.Fatalf("after first tick: %+v", m.anim)
	}

	updated, cmd = m.Update(revealTickMsg(time.Now()))
	m = updated.(tuiModel)
	if m.anim.Running || m.anim.Index != 0 {
		t.Errorf("reveal should reset at the end: %+v", m.anim)
	}
	if cmd != nil {
		t.Error("tick rescheduled after completion")
	}
}

func TestTUIReplayStopsOnSpace(t *testing.T) {
	m := readyTUI(t, event("us1", 6.2, "Tokyo, Japan"), event("us2", 5.1, "Santiago, Chile"))

	updated, _ := m.Update(key(" "))
	m = updated.(tuiModel)
	updated, _ = m.Update(key(" "))
	m = updated.(tuiModel)

	if m.anim.Running || m.anim.Index != 0 {
		t.Errorf("reveal should be stopped and reset: %+v", m.anim)
	}
}

func TestTUIReplayRefusedWhenEmpty(t *testing.T) {
	m := readyTUI(t) // no events

	updated, cmd := m.Update(key(" "))
	m = updated.(tuiModel)
	if m.anim.Running {
		t.Error("reveal started with nothing to show")
	}
	if cmd != nil {
		t.Error("tick scheduled with nothing to show")
	}
}

func TestTUIFilterChangeStopsReplay(t *testing.T) {
	m := readyTUI(t, event("us1", 6.2, "Tokyo, Japan"), event("us2", 5.1, "Santiago, Chile"))

	updated, _ := m.Update(key(" "))
	m = updated.(tuiModel)
	if !m.anim.Running {
		t.Fatal("reveal did not start")
	}

	// Raising the floor drops the 5.1 event and cancels the reveal
	updated, _ = m.Update(key("+"))
	m = updated.(tuiModel)
	updated, _ = m.Update(key("+"))
	m = updated.(tuiModel)
	updated, _ = m.Update(key("+"))
	m = updated.(tuiModel)

	if m.anim.Running {
		t.Error("reveal survived a filter change")
	}
	if len(m.filtered) != 1 {
		t.Errorf("filtered = %d, want 1", len(m.filtered))
	}
}

func TestTUICursorBounds(t *testing.T) {
	m := readyTUI(t, event("us1", 6.2, "Tokyo, Japan"), event("us2", 5.1, "Santiago, Chile"))

	updated, _ := m.Update(key("k"))
	m = updated.(tuiModel)
	if m.cursor != 0 {
		t.Errorf("cursor moved above the top: %d", m.cursor)
	}

	updated, _ = m.Update(key("j"))
	m = updated.(tuiModel)
	updated, _ = m.Update(key("j"))
	m = updated.(tuiModel)
	if m.cursor != 1 {
		t.Errorf("cursor moved past the end: %d", m.cursor)
	}
}

func TestTUIRegionCycle(t *testing.T) {
	m := readyTUI(t, event("us1", 6.2, "Tokyo, Japan"))

	start := m.filter.Region
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(tuiModel)
	if m.filter.Region == start {
		t.Errorf("region did not advance from %s", start)
	}
}
